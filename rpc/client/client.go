// Package client provides shared http client and request helpers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout     = 20 // seconds
	defaultSlowTimeout = 60 // seconds

	maxResponseBytes = 10 * 1024 * 1024
)

var httpClient *http.Client

// InitHTTPClient init http client
func InitHTTPClient() {
	httpClient = &http.Client{}
}

func getHTTPClient() *http.Client {
	if httpClient == nil {
		InitHTTPClient()
	}
	return httpClient
}

// GetDefaultTimeout get default timeout in seconds
func GetDefaultTimeout(isSlow bool) int {
	if isSlow {
		return defaultSlowTimeout
	}
	return defaultTimeout
}

// HTTPGet json get request
func HTTPGet(result interface{}, urlStr string, params, headers map[string]string, timeout int) error {
	reqURL, err := buildURL(urlStr, params)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	addHeaders(req, headers)
	return doRequest(result, req, timeout)
}

// HTTPPost json post request
func HTTPPost(result interface{}, urlStr string, body interface{}, params, headers map[string]string, timeout int) error {
	reqURL, err := buildURL(urlStr, params)
	if err != nil {
		return err
	}
	var bodyReader io.Reader
	if body != nil {
		jsonData, errm := json.Marshal(body)
		if errm != nil {
			return fmt.Errorf("json marshal request body failed: %w", errm)
		}
		bodyReader = bytes.NewReader(jsonData)
	}
	req, err := http.NewRequest(http.MethodPost, reqURL, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	addHeaders(req, headers)
	return doRequest(result, req, timeout)
}

func buildURL(urlStr string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return urlStr, nil
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("wrong request url '%v': %w", urlStr, err)
	}
	query := parsed.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func addHeaders(req *http.Request, headers map[string]string) {
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

func doRequest(result interface{}, req *http.Request, timeout int) error {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := getHTTPClient()
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
	defer cancel()
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wrong response status %v. message: %v", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if result == nil {
		return nil
	}
	err = json.Unmarshal(body, result)
	if err != nil {
		return fmt.Errorf("json unmarshal response failed: %w. body: %v", err, strings.TrimSpace(string(body)))
	}
	return nil
}
