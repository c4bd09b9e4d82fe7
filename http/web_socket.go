package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	dicomweb "gitlab.com/medical-research/dicomweb-client"
)

// StoreEvent is streamed back to the client after every instance received on
// the store WebSocket.
type StoreEvent struct {
	Sequence int    `json:"sequence"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// wsStoreInstances handles the "GET /ws/store" route. Each binary WebSocket
// message is one serialized DICOM instance; the instance is stored via
// STOW-RS and a per-instance result event is streamed back, so a client
// uploading a large series can watch its progress.
func (s *Server) wsStoreInstances(w http.ResponseWriter, r *http.Request) {
	s.WebSocketUpgrader.CheckOrigin = func(r *http.Request) bool { return true }

	// upgrade this connection to a WebSocket connection
	ws, err := s.WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}
	defer ws.Close()

	s.wsStoreReader(r, ws)
}

// wsStoreReader listens for instances sent to the store WebSocket endpoint
// until the peer disconnects.
func (s *Server) wsStoreReader(r *http.Request, conn *websocket.Conn) {
	stowURL := dicomweb.DicomPathJoin(s.DicomWebURL, "studies")

	for sequence := 1; ; sequence++ {
		messageType, instance, err := conn.ReadMessage()
		if err != nil {
			// Normal close or a broken peer; either way the stream is done.
			return
		}

		event := StoreEvent{Sequence: sequence, Status: "stored"}
		if messageType != websocket.BinaryMessage {
			event.Status = "rejected"
			event.Error = "expected a binary message carrying one DICOM instance"
		} else if err := s.DicomWebClient.StowRs(r.Context(), stowURL, [][]byte{instance}); err != nil {
			dicomweb.ReportError(r.Context(), err, r)
			event.Status = "failed"
			event.Error = dicomweb.ErrorMessage(err)
		}

		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[http] error: store event could not be streamed: %v", err)
			return
		}
	}
}
