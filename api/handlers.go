package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/com"
	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/send"
	"github.com/ftl/ais-nmea/sentence"
	"github.com/ftl/ais-nmea/sixbit"
)

// Output formats of the /encode route.
const (
	FormatVDM  = "vdm"
	FormatSend = "send"
)

type decodeRequest struct {
	Lines []string `json:"lines" binding:"required"`
}

type decodedMessage struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel,omitempty"`
	Sentences []string        `json:"sentences"`
	Message   message.Message `json:"message"`
}

type decodeError struct {
	Error string   `json:"error"`
	Lines []string `json:"lines"`
}

type decodeResponse struct {
	Messages []decodedMessage `json:"messages"`
	Errors   []decodeError    `json:"errors"`
	Pending  int              `json:"pending"`
}

// TextRequest describes a safety related text message (12 or 14).
type TextRequest struct {
	Type        int      `json:"type" binding:"required"`
	Source      ais.MMSI `json:"mmsi"`
	Destination ais.MMSI `json:"destination"`
	Sequence    int      `json:"sequence"`
	Retransmit  bool     `json:"retransmit"`
	Channel     string   `json:"channel"`
	Format      string   `json:"format"`
	Text        string   `json:"text" binding:"required"`
}

// Message builds the message of the request. The text is reduced to the six-bit character set.
func (r TextRequest) Message() (message.Message, error) {
	text := sixbit.Sanitize(r.Text)
	switch r.Type {
	case 12:
		return message.AddressedSafety{
			Header:      message.Header{ID: 12, UserID: r.Source},
			Sequence:    uint8(r.Sequence & 3),
			Destination: r.Destination,
			Retransmit:  r.Retransmit,
			Text:        text,
		}, nil
	case 14:
		return message.BroadcastSafety{
			Header: message.Header{ID: 14, UserID: r.Source},
			Text:   text,
		}, nil
	default:
		return nil, fmt.Errorf("message type %d is not a text message", r.Type)
	}
}

func (r TextRequest) sendChannel() (int, error) {
	switch r.Channel {
	case "":
		return send.AnyChannel, nil
	case "A":
		return send.ChannelA, nil
	case "B":
		return send.ChannelB, nil
	case "AB":
		return send.BothChannel, nil
	default:
		return 0, fmt.Errorf("invalid channel %q", r.Channel)
	}
}

// SendRequest builds a request for transmission through a transponder.
func (r TextRequest) SendRequest() (send.Request, error) {
	m, err := r.Message()
	if err != nil {
		return send.Request{}, err
	}
	channel, err := r.sendChannel()
	if err != nil {
		return send.Request{}, err
	}
	return send.Request{Message: m, Sequence: r.Sequence, Channel: channel}, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	response := gin.H{"status": "ok"}
	if s.stats != nil {
		response["counts"] = s.stats.Counts()
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleDecode(c *gin.Context) {
	var request decodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}

	response := decodeResponse{
		Messages: []decodedMessage{},
		Errors:   []decodeError{},
	}
	parser := message.NewParser()
	assembler := sentence.NewAssembler().WithFaultCallback(func(f sentence.Fault) {
		response.Errors = append(response.Errors, decodeError{Error: f.Reason, Lines: f.Sentences})
	})
	for _, line := range request.Lines {
		status, payload, err := assembler.Put(line)
		if err != nil {
			response.Errors = append(response.Errors, decodeError{Error: err.Error(), Lines: []string{line}})
			continue
		}
		if status != sentence.Complete {
			continue
		}
		m, err := com.DecodePayload(parser, payload)
		if err != nil {
			response.Errors = append(response.Errors, decodeError{Error: err.Error(), Lines: payload.Sentences})
			continue
		}
		response.Messages = append(response.Messages, decodedMessage{
			Type:      message.TypeName(m),
			Channel:   payload.Channel,
			Sentences: payload.Sentences,
			Message:   m,
		})
	}
	response.Pending = assembler.Pending()

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleEncode(c *gin.Context) {
	var request TextRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}

	var sentences []string
	var err error
	switch request.Format {
	case "", FormatVDM:
		sentences, err = s.encodeVDM(request)
	case FormatSend:
		var sendRequest send.Request
		sendRequest, err = request.SendRequest()
		if err == nil {
			sentences, err = sendRequest.Sentences(s.talker)
		}
	default:
		err = fmt.Errorf("unknown format %q", request.Format)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sentences": sentences})
}

func (s *Server) encodeVDM(request TextRequest) ([]string, error) {
	channel := request.Channel
	if channel == "" {
		channel = "A"
	}
	fragmenter, ok := s.fragmenters[channel]
	if !ok {
		return nil, fmt.Errorf("invalid channel %q", request.Channel)
	}
	return request.Sentences(fragmenter)
}

// Sentences encodes the message of the request into VDM sentences.
func (r TextRequest) Sentences(fragmenter *sentence.Fragmenter) ([]string, error) {
	m, err := r.Message()
	if err != nil {
		return nil, err
	}
	payload, fillBits, err := message.Encode(m)
	if err != nil {
		return nil, err
	}
	return fragmenter.Sentences(payload, fillBits)
}

func (s *Server) handleSend(c *gin.Context) {
	if s.sender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no transponder connected"})
		return
	}
	var request TextRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to unmarshal request"})
		return
	}
	sendRequest, err := request.SendRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ack, err := s.sender.Send(c.Request.Context(), sendRequest, s.sendTimeout)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ack": ack.Type.String()})
	case errors.Is(err, send.ErrNotSendable), errors.Is(err, send.ErrMissingRecipient), errors.Is(err, send.ErrInvalidSequence):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, send.ErrSequenceInUse):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, send.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, send.ErrNegativeAck):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "ack": ack.Type.String()})
	default:
		s.log.WithError(err).Error("cannot send message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
