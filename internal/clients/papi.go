package clients

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
)

// DefaultPapiBaseURL is the Binance portfolio-margin API host.
const DefaultPapiBaseURL = "https://papi.binance.com"

// UmPositionAPI is a USD-M position as returned by /papi/v1/um/positionRisk.
type UmPositionAPI struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	UnrealizedProfit string `json:"unrealizedProfit"`
}

// PmAccountInfoAPI is the account summary returned by /papi/v1/account.
type PmAccountInfoAPI struct {
	UniMMR                   string `json:"uniMMR"`
	ActualEquity             string `json:"actualEquity"`
	VirtualMaxWithdrawAmount string `json:"virtualMaxWithdrawAmount"`
}

// PmAccountBalanceAPI is a per-asset balance returned by /papi/v1/balance.
type PmAccountBalanceAPI struct {
	Asset           string `json:"asset"`
	UmWalletBalance string `json:"umWalletBalance"`
}

// PortfolioMarginClient issues signed GET requests against the Binance
// portfolio-margin host. go-binance has no papi.binance.com surface, so the
// few endpoints needed here are called directly; API error bodies are
// surfaced as *common.APIError to keep one error shape across both hosts.
type PortfolioMarginClient struct {
	httpClient *http.Client
	apiKey     string
	apiSecret  string
	baseURL    string
}

func NewPortfolioMarginClient(apiKey, apiSecret, baseURL string, timeout time.Duration) *PortfolioMarginClient {
	if baseURL == "" {
		baseURL = DefaultPapiBaseURL
	}

	return &PortfolioMarginClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// UmPositions fetches all USD-M derivatives positions.
func (c *PortfolioMarginClient) UmPositions(ctx context.Context) ([]UmPositionAPI, error) {
	var positions []UmPositionAPI
	if err := c.getSigned(ctx, "/papi/v1/um/positionRisk", &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// AccountInfo fetches the portfolio-margin account summary.
func (c *PortfolioMarginClient) AccountInfo(ctx context.Context) (PmAccountInfoAPI, error) {
	var info PmAccountInfoAPI
	if err := c.getSigned(ctx, "/papi/v1/account", &info); err != nil {
		return PmAccountInfoAPI{}, err
	}
	return info, nil
}

// AccountBalances fetches per-asset portfolio-margin balances.
func (c *PortfolioMarginClient) AccountBalances(ctx context.Context) ([]PmAccountBalanceAPI, error) {
	var balances []PmAccountBalanceAPI
	if err := c.getSigned(ctx, "/papi/v1/balance", &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

func (c *PortfolioMarginClient) getSigned(ctx context.Context, path string, out any) error {
	values := url.Values{}
	values.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	query := values.Encode()
	query += "&signature=" + signQuery(query, c.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to build papi request for %s", path)
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "papi request %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read papi response for %s", path)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := new(common.APIError)
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr == nil && apiErr.Code != 0 {
			return apiErr
		}
		return errors.Errorf("papi request %s returned status %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "failed to decode papi response for %s", path)
	}

	return nil
}

// signQuery signs the query string with HMAC-SHA256 as Binance requires.
func signQuery(query, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}
