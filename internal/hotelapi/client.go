package hotelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

// Client talks to the hotel backend REST API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *logrus.Logger
}

// StatusError carries a non-2xx answer from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hotel api returned status %d: %s", e.StatusCode, e.Body)
}

type AvailabilityQuery struct {
	HotelID    int64
	Range      domain.DateRange
	RoomTypeID int64
}

func NewClient(cfg config.HotelAPIConfig, logger *logrus.Logger) *Client {
	return NewClientWithHTTP(cfg.BaseURL, cfg.Token, &http.Client{
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, logger)
}

func NewClientWithHTTP(baseURL, token string, httpClient *http.Client, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  httpClient,
		logger:  logger,
	}
}

func (c *Client) SearchAvailability(ctx context.Context, q AvailabilityQuery) (*domain.AvailabilityRangeResponse, error) {
	params := url.Values{}
	params.Set("hotel_id", strconv.FormatInt(q.HotelID, 10))
	params.Set("start_date", q.Range.Start.String())
	params.Set("end_date", q.Range.End.String())
	if q.RoomTypeID > 0 {
		params.Set("room_type_id", strconv.FormatInt(q.RoomTypeID, 10))
	}

	var resp domain.AvailabilityRangeResponse
	if err := c.do(ctx, "search availability", http.MethodGet, "/rooms/availability/range/", params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error) {
	var room domain.DetailedRoom
	if err := c.do(ctx, "get room", http.MethodGet, fmt.Sprintf("/rooms/%d", roomID), nil, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreateBooking(ctx context.Context, payload domain.CreateBookingPayload) (*domain.DraftBooking, error) {
	var booking domain.DraftBooking
	if err := c.do(ctx, "create booking", http.MethodPost, "/bookings/web-create", nil, payload, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error) {
	var resp domain.ConversionsResponse
	path := fmt.Sprintf("/bookings/%d/currency-conversions", bookingID)
	if err := c.do(ctx, "get conversions", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	var booking domain.EnrichedBooking
	if err := c.do(ctx, "get booking", http.MethodGet, fmt.Sprintf("/bookings/%d", bookingID), nil, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) UpdateBooking(ctx context.Context, bookingID int64, patch domain.BookingPatch) (*domain.EnrichedBooking, error) {
	var booking domain.EnrichedBooking
	if err := c.do(ctx, "update booking", http.MethodPatch, fmt.Sprintf("/bookings/%d", bookingID), nil, patch, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) CheckIn(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error) {
	var booking domain.EnrichedBooking
	if err := c.do(ctx, "check in", http.MethodPost, fmt.Sprintf("/bookings/%d/check_in", bookingID), nil, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"op":     op,
			"method": method,
			"path":   path,
		}).Warn("Hotel API request failed")
		return domain.NewTransientError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewTransientError(op, fmt.Errorf("failed to read response: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"op":          op,
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	}).Debug("Hotel API response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(op, &StatusError{StatusCode: resp.StatusCode, Body: string(data)})
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to parse response: %w", op, err)
	}
	return nil
}

func classify(op string, err *StatusError) error {
	switch {
	case err.StatusCode >= 500 || err.StatusCode == http.StatusTooManyRequests || err.StatusCode == http.StatusRequestTimeout:
		return domain.NewTransientError(op, err)
	case err.StatusCode == http.StatusNotFound:
		return &domain.Error{Kind: domain.KindNotFound, Op: op, Message: "not found", Err: err}
	default:
		return domain.NewRejectedError(op, backendMessage(err.Body), err)
	}
}

// backendMessage pulls a human message out of the usual error envelopes.
func backendMessage(body string) string {
	var envelope struct {
		Detail  interface{} `json:"detail"`
		Message string      `json:"message"`
		Error   string      `json:"error"`
	}
	if json.Unmarshal([]byte(body), &envelope) == nil {
		switch {
		case envelope.Message != "":
			return envelope.Message
		case envelope.Error != "":
			return envelope.Error
		case envelope.Detail != nil:
			if s, ok := envelope.Detail.(string); ok {
				return s
			}
			return fmt.Sprint(envelope.Detail)
		}
	}
	return "request rejected"
}

// API is the slice of the hotel backend the wizard needs.
type API interface {
	SearchAvailability(ctx context.Context, q AvailabilityQuery) (*domain.AvailabilityRangeResponse, error)
	GetRoom(ctx context.Context, roomID int64) (*domain.DetailedRoom, error)
	CreateBooking(ctx context.Context, payload domain.CreateBookingPayload) (*domain.DraftBooking, error)
	GetConversions(ctx context.Context, bookingID int64) (*domain.ConversionsResponse, error)
	GetBooking(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
	UpdateBooking(ctx context.Context, bookingID int64, patch domain.BookingPatch) (*domain.EnrichedBooking, error)
	CheckIn(ctx context.Context, bookingID int64) (*domain.EnrichedBooking, error)
}

var _ API = (*Client)(nil)
