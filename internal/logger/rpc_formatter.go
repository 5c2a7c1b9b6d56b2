package logger

import (
	"fmt"
	"strings"
)

// formatRPCMessage renders a message as one line:
//
//	toolhost→tools/call(search) 182b {"jsonrpc":...}
//	toolhost←resp 96b err:quota exceeded {"jsonrpc":...}
func formatRPCMessage(info *RPCMessageInfo) string {
	dir := "←"
	if info.Direction == RPCDirectionOutbound {
		dir = "→"
	}

	var parts []string
	if info.ServerID != "" {
		target := "resp"
		if info.Method != "" {
			target = info.Method
			if info.ToolName != "" {
				target += "(" + info.ToolName + ")"
			}
		}
		parts = append(parts, info.ServerID+dir+target)
	}

	parts = append(parts, fmt.Sprintf("%db", info.PayloadSize))
	if info.Error != "" {
		parts = append(parts, "err:"+info.Error)
	}
	if info.Payload != "" {
		parts = append(parts, info.Payload)
	}
	return strings.Join(parts, " ")
}
