package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"multistep-rag-be/internal/dto"
	"multistep-rag-be/internal/pkg/logger"
	"multistep-rag-be/internal/pkg/serverutils"
	"multistep-rag-be/internal/service"
	ws "multistep-rag-be/internal/websocket"
	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/rag/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	hub       *ws.Hub
	logger    logger.ILogger
	jwtSecret string
}

func NewChatController(service service.IChatService, hub *ws.Hub, log logger.ILogger, jwtSecret string) IChatController {
	return &chatController{
		service:   service,
		hub:       hub,
		logger:    log,
		jwtSecret: jwtSecret,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions/:id", c.GetSession)
	h.Post("/sessions/:id/messages", c.SendMessage)
	h.Get("/sessions/:id/ws", c.upgrade, websocket.New(c.serveWs))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

// SendMessage streams the answer as server-sent events. Errors known before the run starts
// (unknown session, busy session, empty question) are plain JSON error responses.
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	sessionID := ctx.Params("id")
	stream, err := c.service.SendMessage(ctx.UserContext(), sessionID, &req)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stream.Close()
		// the request context is recycled once the handler returns
		c.streamSSE(context.Background(), w, sessionID, stream)
	}))
	return nil
}

func (c *chatController) streamSSE(ctx context.Context, w *bufio.Writer, sessionID string, stream *workflow.Stream) {
	for fragment, err := range stream.Fragments(ctx) {
		if err != nil {
			c.logger.Error("CHAT", "Run failed", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
			writeEvent(w, "error", mustJSON(errorPayload(err)))
			w.Flush()
			return
		}
		writeEvent(w, "", fragment)
		if err := w.Flush(); err != nil {
			// client went away; breaking stops the run and frees the session
			c.logger.Warn("CHAT", "Client disconnected mid-stream", map[string]interface{}{"session_id": sessionID})
			return
		}
	}

	writeEvent(w, "done", mustJSON(donePayload(stream.Result())))
	w.Flush()
}

func (c *chatController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.Next()
}

func (c *chatController) serveWs(conn *websocket.Conn) {
	ws.ServeWs(c.hub, conn, conn.Params("id"), c.answerToHub)
}

// answerToHub runs a question submitted over a socket and broadcasts the frames to every watcher
func (c *chatController) answerToHub(sessionID, question string) {
	ctx := context.Background()

	stream, err := c.service.SendMessage(ctx, sessionID, &dto.SendMessageRequest{Question: question})
	if err != nil {
		c.hub.Deliver(sessionID, errorFrame(err))
		return
	}
	defer stream.Close()

	for fragment, err := range stream.Fragments(ctx) {
		if err != nil {
			c.logger.Error("CHAT", "Run failed", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
			c.hub.Deliver(sessionID, errorFrame(err))
			return
		}
		c.hub.Deliver(sessionID, dto.StreamFrame{Type: dto.FrameFragment, Content: fragment})
	}

	res := stream.Result()
	c.hub.Deliver(sessionID, dto.StreamFrame{Type: dto.FrameDone, Outcome: string(res.Outcome), RephraseCount: res.RephraseCount})
}

func errorFrame(err error) dto.StreamFrame {
	return dto.StreamFrame{Type: dto.FrameError, ErrorKind: serverutils.KindFor(err), Message: err.Error()}
}

func errorPayload(err error) map[string]interface{} {
	payload := map[string]interface{}{"error_kind": rag.Kind(err), "message": err.Error()}
	var stepErr *workflow.StepError
	if errors.As(err, &stepErr) {
		payload["step"] = stepErr.Step
	}
	return payload
}

func donePayload(res *workflow.Result) map[string]interface{} {
	if res == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"outcome":        res.Outcome,
		"rephrase_count": res.RephraseCount,
		"path":           res.Path,
	}
}

func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// writeEvent frames data as one SSE event; multi-line data becomes several data: lines
func writeEvent(w *bufio.Writer, event, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	w.WriteString("\n")
}
