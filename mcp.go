package main

import (
	"context"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

//go:embed nux_patch_format.txt
var patchFormatDoc string

type toolHandlers struct {
	enc    *Encoder
	logger *zap.Logger
}

type encodeResult struct {
	Length    int    `json:"length"`
	Transport string `json:"transport"`
	Bytes     Patch  `json:"bytes"`
}

type decodeResult struct {
	Chain Chain        `json:"chain"`
	Debug []DebugEntry `json:"debug"`
}

func newMCPServer(cfg *Config, enc *Encoder, log *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		cfg.MCP.Name,
		cfg.MCP.Version,
		server.WithToolCapabilities(false),
	)
	h := &toolHandlers{enc: enc, logger: log}

	s.AddTool(mcp.NewTool("nux_describe-format",
		mcp.WithDescription("Returns the description of the NUX patch format and its QR transport string."),
	), h.describeFormat)

	s.AddTool(mcp.NewTool("nux_describe-layout",
		mcp.WithDescription("Returns the byte layout: header and parameter offsets for every block and effect type."),
	), h.describeLayout)

	s.AddTool(mcp.NewTool("nux_default-chain",
		mcp.WithDescription("Returns the factory default effect chain as JSON."),
	), h.defaultChain)

	chainArgs := []mcp.ToolOption{
		mcp.WithString("chain-json", mcp.Description("The chain in JSON format ({\"blocks\": [...]}). Defaults to the factory default chain.")),
		mcp.WithString("set", mcp.Description("Assignments applied before encoding, e.g. \"drive.enabled=on drive.gain=50\".")),
	}

	s.AddTool(mcp.NewTool("nux_encode-chain",
		append([]mcp.ToolOption{mcp.WithDescription("Encodes a chain into patch bytes and the QR transport string.")}, chainArgs...)...,
	), h.encodeChain)

	s.AddTool(mcp.NewTool("nux_debug-chain",
		append([]mcp.ToolOption{mcp.WithDescription("Lists every non-zero patch byte of a chain with the field that wrote it.")}, chainArgs...)...,
	), h.debugChain)

	s.AddTool(mcp.NewTool("nux_decode-transport",
		mcp.WithDescription("Decodes a QR transport string back into a chain."),
		mcp.WithString("transport", mcp.Required(), mcp.Description("Decimal transport string, three digits per byte.")),
	), h.decodeTransport)

	return s
}

func runMCP(cfg *Config, enc *Encoder, log *zap.Logger) error {
	s := newMCPServer(cfg, enc, log)
	log.Info("starting MCP server", zap.String("name", cfg.MCP.Name), zap.String("layout", enc.Layout().Name()))
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}

func (h *toolHandlers) describeFormat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debug("[mcp] handling format description request")
	return mcp.NewToolResultText(patchFormatDoc), nil
}

func (h *toolHandlers) describeLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debug("[mcp] handling layout description request")
	return mcp.NewToolResultText(describeLayout(h.enc.Layout())), nil
}

func (h *toolHandlers) defaultChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debug("[mcp] handling default chain request")
	return jsonResult(CreateDefaultChain())
}

func (h *toolHandlers) encodeChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debug("[mcp] handling encode request")

	chain, err := h.chainFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch, err := h.enc.Encode(chain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode chain: %v", err)), nil
	}
	return jsonResult(encodeResult{Length: patch.Len(), Transport: TransportString(patch), Bytes: patch})
}

func (h *toolHandlers) debugChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debug("[mcp] handling debug request")

	chain, err := h.chainFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := h.enc.Debug(chain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode chain: %v", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandlers) decodeTransport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.logger.Debug("[mcp] handling decode request")

	transport, err := request.RequireString("transport")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch, err := ParseTransportString(transport)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	chain, err := h.enc.Decode(patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := h.enc.DebugPatch(patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(decodeResult{Chain: chain, Debug: report.Debug})
}

// chainFromRequest reads the optional chain-json and set arguments.
func (h *toolHandlers) chainFromRequest(request mcp.CallToolRequest) (Chain, error) {
	chain := CreateDefaultChain()
	if js := request.GetString("chain-json", ""); js != "" {
		c, err := parseChainJSON([]byte(js))
		if err != nil {
			return Chain{}, err
		}
		chain = c
	}
	if set := request.GetString("set", ""); set != "" {
		as, err := ParseAssignments(set)
		if err != nil {
			return Chain{}, err
		}
		if chain, err = h.enc.Layout().Apply(chain, as); err != nil {
			return Chain{}, err
		}
	}
	return chain, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	asJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result to JSON: %v", err)
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}
