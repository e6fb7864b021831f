// Package hive is a minimal condenser-API client able to sign and broadcast
// witness feed_publish operations
package hive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/brianoflondon/v4vapp-hive-pricefeed/domain"
)

const expirationWindow = time.Minute

// Client signs and broadcasts transactions against a single Hive node
type Client struct {
	nodeURL string
	chainID []byte
	key     *secp256k1.PrivateKey
	client  *http.Client
	log     hclog.Logger
	now     func() time.Time
}

var _ domain.FeedBroadcaster = (*Client)(nil)

// exchangeRate pairs the HBD quote against one unit of HIVE
type exchangeRate struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

type feedPublishOperation struct {
	Publisher    string       `json:"publisher"`
	ExchangeRate exchangeRate `json:"exchange_rate"`
}

// condenserTransaction is the legacy JSON transaction form the condenser
// API expects
type condenserTransaction struct {
	RefBlockNum    uint16   `json:"ref_block_num"`
	RefBlockPrefix uint32   `json:"ref_block_prefix"`
	Expiration     string   `json:"expiration"`
	Operations     [][]any  `json:"operations"`
	Extensions     []any    `json:"extensions"`
	Signatures     []string `json:"signatures"`
}

type globalProperties struct {
	HeadBlockNumber uint32 `json:"head_block_number"`
	HeadBlockID     string `json:"head_block_id"`
}

type broadcastResult struct {
	ID       string `json:"id"`
	BlockNum uint32 `json:"block_num"`
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// NewClient validates the WIF key and builds a client for the given node.
// A key that fails to decode is reported as a KindInvalidKey error so the
// process can refuse to start with unusable credentials.
func NewClient(nodeURL, chainID, activeKeyWIF string, log hclog.Logger) (*Client, error) {
	id, err := hex.DecodeString(chainID)
	if err != nil {
		return nil, fmt.Errorf("invalid chain id: %w", err)
	}

	key, err := decodeWIF(activeKeyWIF)
	if err != nil {
		return nil, err
	}

	return &Client{
		nodeURL: nodeURL,
		chainID: id,
		key:     key,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.Named("hive"),
		now: time.Now,
	}, nil
}

// FeedPublish signs and synchronously broadcasts a feed_publish operation
// quoting base HBD against 1.000 HIVE
func (c *Client) FeedPublish(ctx context.Context, publisher string, base float64) (domain.Confirmation, error) {
	var props globalProperties
	if err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props); err != nil {
		return domain.Confirmation{}, err
	}

	headID, err := hex.DecodeString(props.HeadBlockID)
	if err != nil || len(headID) < 8 {
		return domain.Confirmation{}, &Error{
			Kind: KindRPC,
			Op:   "feed_publish",
			Err:  fmt.Errorf("node returned unusable head block id %q", props.HeadBlockID),
		}
	}

	op := feedPublishOperation{
		Publisher: publisher,
		ExchangeRate: exchangeRate{
			Base:  fmt.Sprintf("%.3f HBD", base),
			Quote: "1.000 HIVE",
		},
	}

	refBlockNum := uint16(props.HeadBlockNumber & 0xFFFF)
	refBlockPrefix := binary.LittleEndian.Uint32(headID[4:8])
	expiration := c.now().UTC().Add(expirationWindow)

	serialized, err := serializeFeedPublishTx(refBlockNum, refBlockPrefix, expiration, op)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	message := make([]byte, 0, len(c.chainID)+len(serialized))
	message = append(message, c.chainID...)
	message = append(message, serialized...)
	digest := sha256.Sum256(message)

	signature, err := signCanonical(c.key, digest[:])
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	tx := condenserTransaction{
		RefBlockNum:    refBlockNum,
		RefBlockPrefix: refBlockPrefix,
		Expiration:     expiration.Format("2006-01-02T15:04:05"),
		Operations:     [][]any{{"feed_publish", op}},
		Extensions:     []any{},
		Signatures:     []string{hex.EncodeToString(signature)},
	}

	var result broadcastResult
	if err := c.call(ctx, "condenser_api.broadcast_transaction_synchronous", []any{tx}, &result); err != nil {
		return domain.Confirmation{}, err
	}

	c.log.Debug("transaction broadcast", "tx", result.ID, "block", result.BlockNum)

	return domain.Confirmation{
		TxID:     result.ID,
		BlockNum: result.BlockNum,
	}, nil
}

// call performs one JSON-RPC exchange and classifies every failure mode
// into a typed Error
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: method, Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{
			Kind: KindTransport,
			Op:   method,
			Err:  fmt.Errorf("node returned status %d", resp.StatusCode),
		}
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return &Error{
			Kind: KindTransport,
			Op:   method,
			Err:  fmt.Errorf("undecodable node response: %w", err),
		}
	}

	if rpcResp.Error != nil {
		return &Error{
			Kind: classifyRPCMessage(rpcResp.Error.Message),
			Op:   method,
			Err:  fmt.Errorf("node error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message),
		}
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return &Error{
				Kind: KindRPC,
				Op:   method,
				Err:  fmt.Errorf("undecodable result: %w", err),
			}
		}
	}

	return nil
}

// classifyRPCMessage is the single place error text is inspected; everything
// downstream works with the resulting Kind
func classifyRPCMessage(message string) Kind {
	if strings.Contains(strings.ToLower(message), "missing required active authority") {
		return KindMissingAuthority
	}

	return KindRPC
}
