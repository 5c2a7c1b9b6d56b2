package toolhost

// MethodToolsCall is the only JSON-RPC method this client speaks.
const MethodToolsCall = "tools/call"

// acceptHeader lets the tool host answer with a single JSON document or a
// buffered event stream.
const acceptHeader = "application/json, text/event-stream"

// genericToolError is reported when a tool flags isError without any text content.
const genericToolError = "tool reported an error"
