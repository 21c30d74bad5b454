// Package ebay speaks eBay's OAuth and Trading API surfaces. Wire-format
// leniency lives entirely in here: callers get typed pages and typed
// errors, never raw XML.
package ebay

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

const (
	compatibilityLevel = "967"
	siteIDUS           = "0"

	// Trading API calls for a single seller are limited upstream; one
	// request every two seconds with a small burst keeps us well inside.
	requestsPerSecond = 0.5
	requestBurst      = 2
)

// Client issues OAuth and Trading API requests for one eBay application.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient creates a client from application credentials.
func NewClient(config Config) *Client {
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		now:        time.Now,
	}
}

// GetSellerTransactions fetches one page of the seller's transaction
// history modified inside [from, to]. An error envelope inside a 200
// response is detected and returned as an APIError.
func (c *Client) GetSellerTransactions(ctx context.Context, accessToken string, from, to time.Time, pageNumber, pageSize int) (*TransactionsPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	request := GetSellerTransactionsRequest{
		Xmlns:       "urn:ebay:apis:eBLBaseComponents",
		DetailLevel: "ReturnAll",
		ModTimeFrom: from.UTC().Format(time.RFC3339),
		ModTimeTo:   to.UTC().Format(time.RFC3339),
	}
	request.Pagination.EntriesPerPage = pageSize
	request.Pagination.PageNumber = pageNumber
	request.IncludeFinalValueFee = true
	request.IncludeContainingOrder = true

	payload, err := xml.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	body := append([]byte(xml.Header), payload...)

	endpoint := c.config.apiBaseURL() + "/ws/api.dll"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("X-EBAY-API-COMPATIBILITY-LEVEL", compatibilityLevel)
	req.Header.Set("X-EBAY-API-CALL-NAME", "GetSellerTransactions")
	req.Header.Set("X-EBAY-API-SITEID", siteIDUS)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "text/xml")
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(raw), 500),
		}
	}

	var parsed getSellerTransactionsResponse
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	// eBay reports call-level failures inside a 200 response. Warnings
	// still carry usable data; anything else is an error envelope.
	if parsed.Ack != "Success" && parsed.Ack != "Warning" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Errors:     parsed.Errors,
			Message:    "call failed with Ack=" + parsed.Ack,
		}
	}

	return &TransactionsPage{
		Transactions: parsed.TransactionArray.Transactions,
		TotalPages:   atoiDefault(parsed.PaginationResult.TotalNumberOfPages, 1),
		TotalEntries: atoiDefault(parsed.PaginationResult.TotalNumberOfEntries, 0),
	}, nil
}

// decodeBody unwraps the negotiated content encoding. Setting
// Accept-Encoding ourselves disables the transport's automatic gzip
// handling, so both encodings are handled here.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip response: %w", err)
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
