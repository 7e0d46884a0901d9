package gbt

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/bsv-blockchain/blkmaker/util/retry"
	jsoniter "github.com/json-iterator/go"
)

// Capabilities advertised in getblocktemplate requests.
var Capabilities = []string{"coinbasetxn", "coinbasevalue", "workid", "coinbase/append", "time/increment"}

// Request is a JSON-RPC 1.0 request.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response is a JSON-RPC response; Result stays raw until the caller knows its type.
type Response struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *RPCError           `json:"error"`
	ID     interface{}         `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewGetBlockTemplateRequest asks for a template, advertising Capabilities and the supported rules.
func NewGetBlockTemplateRequest(id interface{}) *Request {
	return &Request{
		JSONRPC: "1.0",
		ID:      id,
		Method:  "getblocktemplate",
		Params: []interface{}{map[string]interface{}{
			"capabilities": Capabilities,
			"rules":        model.SupportedRules,
		}},
	}
}

// NewSubmitBlockRequest submits a hex encoded block, tagged with the template's work id if it had one.
func NewSubmitBlockRequest(id interface{}, blockHex string, workID string) *Request {
	params := []interface{}{blockHex}
	if workID != "" {
		params = append(params, map[string]string{"workid": workID})
	}

	return &Request{
		JSONRPC: "1.0",
		ID:      id,
		Method:  "submitblock",
		Params:  params,
	}
}

func (r *Request) Bytes() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.NewProcessingError("[gbt] failed to encode %s request", r.Method, err)
	}

	return b, nil
}

// Client talks to a getblocktemplate capable node. Credentials are taken from the URL.
type Client struct {
	logger     ulogger.Logger
	url        string
	client     *http.Client
	retryCount int
	backoff    time.Duration
}

type ClientOption func(*Client)

// WithRetries makes up to count attempts for requests the node could not be reached for, backing
// off exponentially from backoff.
func WithRetries(count int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retryCount = count
		c.backoff = backoff
	}
}

func NewClient(logger ulogger.Logger, url string, opts ...ClientOption) *Client {
	c := &Client{
		logger:     logger,
		url:        url,
		client:     &http.Client{},
		retryCount: 1,
		backoff:    time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call sends req and returns the response, turning a JSON-RPC error into an ErrServiceError.
// Transport failures are ErrServiceUnavailable and are retried when the client has retries.
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	payload, err := req.Bytes()
	if err != nil {
		return nil, err
	}

	return retry.Retry(ctx, c.logger, func() (*Response, error) {
		return c.call(ctx, req.Method, payload)
	},
		retry.WithRetryCount(c.retryCount),
		retry.WithExponentialBackoff(),
		retry.WithBackoffDurationType(c.backoff),
		retry.WithMaxBackoff(30*time.Second),
		retry.WithMessage("[gbt] "+req.Method+" failed, retrying"),
		retry.WithRetryIf(func(err error) bool {
			return errors.Is(err, errors.ErrServiceUnavailable)
		}),
	)
}

func (c *Client) call(ctx context.Context, method string, payload []byte) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInvalidArgumentError("[gbt] invalid rpc url", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewServiceUnavailableError("[gbt] %s request failed", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewServiceUnavailableError("[gbt] failed to read %s response", method, err)
	}

	var rpcResponse Response
	if err := json.Unmarshal(body, &rpcResponse); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, errors.NewServiceUnavailableError("[gbt] %s failed with http status %d", method, resp.StatusCode, err)
		}

		return nil, errors.NewProcessingError("[gbt] failed to parse %s response (http status %d)", method, resp.StatusCode, err)
	}

	if rpcResponse.Error != nil {
		return nil, errors.NewServiceError("[gbt] rpc error %d: %s", rpcResponse.Error.Code, rpcResponse.Error.Message)
	}

	return &rpcResponse, nil
}

// GetBlockTemplate fetches a template and returns the raw result, ready for Decoder.Decode.
func (c *Client) GetBlockTemplate(ctx context.Context) ([]byte, error) {
	resp, err := c.Call(ctx, NewGetBlockTemplateRequest("blkmaker"))
	if err != nil {
		return nil, err
	}

	return resp.Result, nil
}

// SubmitBlock submits a block. A node rejecting it answers with a reason, returned as an error.
func (c *Client) SubmitBlock(ctx context.Context, blockHex string, workID string) error {
	resp, err := c.Call(ctx, NewSubmitBlockRequest("blkmaker", blockHex, workID))
	if err != nil {
		return err
	}

	var reason *string
	if len(resp.Result) == 0 {
		resp.Result = jsoniter.RawMessage("null")
	}

	if err := json.Unmarshal(resp.Result, &reason); err != nil {
		return errors.NewProcessingError("[gbt] unexpected submitblock result %s", string(resp.Result), err)
	}

	if reason != nil {
		return errors.NewBlockInvalidError("[gbt] block rejected: %s", *reason)
	}

	c.logger.Infof("[gbt] block of %d bytes accepted", len(blockHex)/2)

	return nil
}
