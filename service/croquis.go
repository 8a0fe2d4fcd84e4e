package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"croquis-cli/model"
)

// ListEvents returns every event visible to the token.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	endpoint := fmt.Sprintf("%s/eventos", c.baseURL)

	var events []model.Event
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent fetches event metadata for the statistics panel.
func (c *Client) GetEvent(ctx context.Context, eventID int64) (model.Event, error) {
	if eventID <= 0 {
		return model.Event{}, errors.New("event id is required")
	}
	endpoint := fmt.Sprintf("%s/eventos/%d", c.baseURL, eventID)

	var event model.Event
	if err := c.getJSON(ctx, endpoint, &event); err != nil {
		return model.Event{}, err
	}
	if event.Id == 0 {
		event.Id = eventID
	}
	return event, nil
}

// GetLayout fetches the raw layout; callers normalize it.
func (c *Client) GetLayout(ctx context.Context, eventID int64) (model.LayoutResponse, error) {
	if eventID <= 0 {
		return model.LayoutResponse{}, errors.New("event id is required")
	}
	endpoint := fmt.Sprintf("%s/eventos/%d/layout", c.baseURL, eventID)

	var resp model.LayoutResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return model.LayoutResponse{}, err
	}
	return resp, nil
}

// PutLayout upserts the whole layout and returns the server's view of it.
func (c *Client) PutLayout(ctx context.Context, eventID int64, payload model.LayoutPayload) (model.LayoutResponse, error) {
	if eventID <= 0 {
		return model.LayoutResponse{}, errors.New("event id is required")
	}
	endpoint := fmt.Sprintf("%s/eventos/%d/layout", c.baseURL, eventID)

	var resp model.LayoutResponse
	if err := c.doJSON(ctx, http.MethodPut, endpoint, payload, &resp); err != nil {
		return model.LayoutResponse{}, err
	}
	return resp, nil
}

// DeleteArea removes a persisted area and its seats. Any 2xx is success.
func (c *Client) DeleteArea(ctx context.Context, eventID int64, areaID int64) error {
	if eventID <= 0 || areaID <= 0 {
		return errors.New("event id and area id are required")
	}
	endpoint := fmt.Sprintf("%s/eventos/%d/areas/%d", c.baseURL, eventID, areaID)
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email string, password string) (model.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.LoginResponse{}, errors.New("email and password are required")
	}
	endpoint := fmt.Sprintf("%s/auth/login", c.baseURL)

	var resp model.LoginResponse
	body := model.LoginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return model.LoginResponse{}, err
	}
	if resp.Token == "" {
		return model.LoginResponse{}, errors.New("login response carried no token")
	}
	return resp, nil
}
