// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room socket.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected without the "durak" subprotocol.
	InvalidRoomIDError    websocket.StatusCode = 3003 // Room in the URL does not exist.
	ReplacedError         websocket.StatusCode = 3004 // The same seat connected again elsewhere.
)
