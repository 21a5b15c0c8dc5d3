// Package alchemy implements internal/chainadapter/ethereum.RPCClient
// against Alchemy's hosted Ethereum JSON-RPC endpoints. Grounded on the
// teacher's internal/provider/alchemy/alchemy.go (same rpcCall envelope,
// same hex hex-string unmarshal-then-big.Int pattern for every numeric
// field), narrowed from the teacher's multi-chain BlockchainProvider
// surface down to exactly the eight RPC calls the ethereum adapter needs.
package alchemy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/swapcore/swapcore/internal/chainadapter/ethereum"
	"github.com/swapcore/swapcore/internal/errs"
)

var networkEndpoints = map[string]string{
	"mainnet": "https://eth-mainnet.g.alchemy.com/v2",
	"sepolia": "https://eth-sepolia.g.alchemy.com/v2",
}

// Client is a thin JSON-RPC client over Alchemy's Ethereum endpoint. It
// implements ethereum.RPCClient so the ethereum adapter can be pointed
// at a real provider without any other code change.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a Client for the named network ("mainnet" or
// "sepolia"). An empty network defaults to mainnet, matching the
// ethereum adapter's own NetworkTag handling.
func NewClient(apiKey, network string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("alchemy: API key is required")
	}
	if network == "" {
		network = "mainnet"
	}
	baseURL, ok := networkEndpoints[network]
	if !ok {
		return nil, fmt.Errorf("alchemy: unsupported network %q", network)
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

var _ ethereum.RPCClient = (*Client)(nil)

// NewEthereumAdapter builds a ready ethereum.Adapter backed by an
// Alchemy-hosted RPC endpoint, so an embedder never has to reach past
// this package to wire the two together.
func NewEthereumAdapter(apiKey, network, htlcContractAddress string) (*ethereum.Adapter, error) {
	client, err := NewClient(apiKey, network)
	if err != nil {
		return nil, err
	}
	return ethereum.New(client, htlcContractAddress), nil
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("alchemy: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.apiKey, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("alchemy: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.NetworkRPC(method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alchemy: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.NetworkRPC(method, fmt.Errorf("http %d: %s", resp.StatusCode, body))
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("alchemy: parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, errs.NetworkRPC(method, fmt.Errorf("%s", rpcResp.Error.Message))
	}
	return rpcResp.Result, nil
}

func hexToBigInt(raw json.RawMessage) (*big.Int, error) {
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, err
	}
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return nil, fmt.Errorf("alchemy: malformed hex quantity %q", hexStr)
	}
	return n, nil
}

func (c *Client) NonceAt(ctx context.Context, address string) (uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionCount", []interface{}{address, "latest"})
	if err != nil {
		return 0, err
	}
	n, err := hexToBigInt(result)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (c *Client) EstimateGas(ctx context.Context, from, to string, value *big.Int, data []byte) (uint64, error) {
	params := map[string]interface{}{"from": from, "to": to}
	if value != nil && value.Sign() > 0 {
		params["value"] = fmt.Sprintf("0x%x", value)
	}
	if len(data) > 0 {
		params["data"] = fmt.Sprintf("0x%x", data)
	}
	result, err := c.call(ctx, "eth_estimateGas", []interface{}{params})
	if err != nil {
		return 0, err
	}
	n, err := hexToBigInt(result)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (c *Client) BaseFee(ctx context.Context) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBlockByNumber", []interface{}{"latest", false})
	if err != nil {
		return nil, err
	}
	var block struct {
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return nil, fmt.Errorf("alchemy: parsing block: %w", err)
	}
	if block.BaseFeePerGas == "" {
		return nil, fmt.Errorf("alchemy: baseFeePerGas unavailable (pre-EIP-1559 chain)")
	}
	n := new(big.Int)
	n.SetString(strings.TrimPrefix(block.BaseFeePerGas, "0x"), 16)
	return n, nil
}

// SuggestPriorityFee averages the 50th-percentile reward across the last
// ten blocks, the teacher's GetFeeHistory heuristic.
func (c *Client) SuggestPriorityFee(ctx context.Context) (*big.Int, error) {
	result, err := c.call(ctx, "eth_feeHistory", []interface{}{"0xa", "latest", []int{50}})
	if err != nil {
		return nil, err
	}
	var feeHistory struct {
		Reward [][]string `json:"reward"`
	}
	if err := json.Unmarshal(result, &feeHistory); err != nil {
		return nil, fmt.Errorf("alchemy: parsing fee history: %w", err)
	}
	total, count := new(big.Int), 0
	for _, rewards := range feeHistory.Reward {
		if len(rewards) == 0 {
			continue
		}
		reward := new(big.Int)
		reward.SetString(strings.TrimPrefix(rewards[0], "0x"), 16)
		total.Add(total, reward)
		count++
	}
	if count == 0 {
		return big.NewInt(2e9), nil // 2 Gwei, the teacher's fallback default
	}
	return new(big.Int).Div(total, big.NewInt(int64(count))), nil
}

func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (string, error) {
	result, err := c.call(ctx, "eth_sendRawTransaction", []interface{}{fmt.Sprintf("0x%x", raw)})
	if err != nil {
		return "", err
	}
	var txHash string
	if err := json.Unmarshal(result, &txHash); err != nil {
		return "", fmt.Errorf("alchemy: parsing tx hash: %w", err)
	}
	return txHash, nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (int, *uint64, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return 0, nil, err
	}
	if string(result) == "null" {
		return 0, nil, nil
	}
	var receipt struct {
		BlockNumber string `json:"blockNumber"`
	}
	if err := json.Unmarshal(result, &receipt); err != nil {
		return 0, nil, fmt.Errorf("alchemy: parsing receipt: %w", err)
	}
	receiptBlock := new(big.Int)
	receiptBlock.SetString(strings.TrimPrefix(receipt.BlockNumber, "0x"), 16)
	height := receiptBlock.Uint64()

	latest, err := c.BlockNumber(ctx)
	if err != nil {
		return 0, &height, err
	}
	confs := int(latest-height) + 1
	if confs < 0 {
		confs = 0
	}
	return confs, &height, nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "eth_blockNumber", nil)
	if err != nil {
		return 0, err
	}
	n, err := hexToBigInt(result)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func (c *Client) BalanceAt(ctx context.Context, address string) (*big.Int, error) {
	result, err := c.call(ctx, "eth_getBalance", []interface{}{address, "latest"})
	if err != nil {
		return nil, err
	}
	return hexToBigInt(result)
}
