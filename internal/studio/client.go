// Package studio talks to the scene editor that hosts the catalog.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
)

type addItemRequest struct {
	Group    int `json:"group"`
	Category int `json:"category"`
	Item     int `json:"item"`
}

type AddItemResponse struct {
	ObjectID int `json:"object_id"`
}

type Status struct {
	Scene   string `json:"scene"`
	Objects int    `json:"objects"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.StudioConfig.RequestTimeout,
		},
		logger: logger,
	}
}

// AddItem spawns the item at coord into the open scene.
func (c *Client) AddItem(ctx context.Context, coord domain.Coordinate) error {
	req := addItemRequest{Group: coord.GroupNo, Category: coord.CategoryNo, Item: coord.ItemNo}
	var resp AddItemResponse

	if err := c.doRequest(ctx, http.MethodPost, "/items", req, &resp); err != nil {
		return err
	}

	c.logger.Debug("Item added to scene",
		zap.String("coordinate", coord.String()),
		zap.Int("object_id", resp.ObjectID),
	)
	return nil
}

func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.doRequest(ctx, http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.GetStatus(ctx)
	return err == nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewHostError("failed to marshal request", 400, map[string]any{
				"url": url,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return errors.NewHostError("failed to create request", 500, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewHostError("studio request failed", 503, map[string]any{
			"url": url,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewHostError(
			fmt.Sprintf("studio API error: %s", resp.Status),
			resp.StatusCode,
			map[string]any{
				"url":  url,
				"body": string(bodyBytes),
			},
		)
	}

	if respBody != nil && resp.ContentLength != 0 {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil && err != io.EOF {
			return errors.NewHostError("failed to decode response", 500, map[string]any{
				"url": url,
			}).WithCause(err)
		}
	}
	return nil
}
