package logger

// RPC messages exchanged with the tool host are written twice: a compact,
// grep-friendly line in the text log and the full sanitized payload in the
// JSONL log.
//
//	logger.LogRPCRequest(logger.RPCDirectionOutbound, "toolhost", "tools/call", payload)
//	logger.LogRPCResponse(logger.RPCDirectionInbound, "toolhost", body, err)

// RPCMessageType tells requests from responses.
type RPCMessageType string

const (
	RPCMessageRequest  RPCMessageType = "REQUEST"
	RPCMessageResponse RPCMessageType = "RESPONSE"
)

// RPCMessageDirection is relative to the gateway.
type RPCMessageDirection string

const (
	RPCDirectionInbound  RPCMessageDirection = "IN"
	RPCDirectionOutbound RPCMessageDirection = "OUT"
)

// MaxPayloadPreviewLengthText caps the payload preview in the text log.
const MaxPayloadPreviewLengthText = 10 * 1024

// RPCMessageInfo is the text log view of one RPC message.
type RPCMessageInfo struct {
	Direction   RPCMessageDirection
	MessageType RPCMessageType
	ServerID    string
	Method      string
	ToolName    string
	PayloadSize int
	Payload     string // sanitized, truncated preview
	Error       string
}

func logRPCMessage(direction RPCMessageDirection, messageType RPCMessageType, serverID, method string, payload []byte, err error) {
	info := &RPCMessageInfo{
		Direction:   direction,
		MessageType: messageType,
		ServerID:    serverID,
		Method:      method,
		PayloadSize: len(payload),
		Payload:     truncateAndSanitize(string(payload), MaxPayloadPreviewLengthText),
	}
	if method == "tools/call" {
		info.ToolName = toolNameFromPayload(payload)
	}
	if err != nil {
		info.Error = err.Error()
	}

	LogRPCMessage(info)
	LogRPCMessageJSONL(direction, messageType, serverID, method, payload, err)
}

// LogRPCRequest logs a request to the text and JSONL logs.
func LogRPCRequest(direction RPCMessageDirection, serverID, method string, payload []byte) {
	logRPCMessage(direction, RPCMessageRequest, serverID, method, payload, nil)
}

// LogRPCResponse logs a response, and the error it produced if any, to the
// text and JSONL logs.
func LogRPCResponse(direction RPCMessageDirection, serverID string, payload []byte, err error) {
	logRPCMessage(direction, RPCMessageResponse, serverID, "", payload, err)
}

// LogRPCMessage writes info to the text log only.
func LogRPCMessage(info *RPCMessageInfo) {
	LogDebug("rpc", "%s", formatRPCMessage(info))
}
