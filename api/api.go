package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chorus"
	"chorus/broadcast"
	"chorus/common"
	"chorus/domain"
	"chorus/orchestrate"
	"chorus/provider"
	"chorus/srv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func RunServer() *http.Server {
	gin.SetMode(gin.ReleaseMode)
	ctrl, err := NewController()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize controller")
	}
	router := DefineRoutes(ctrl)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", common.GetServerPort()),
		Handler: router.Handler(),
	}

	// Start server in a goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	return server
}

type Controller struct {
	service        srv.Storage
	orchestrator   *orchestrate.Orchestrator
	broadcaster    *broadcast.Registry
	allowedOrigins *AllowedOrigins
}

func NewController() (Controller, error) {
	service, err := chorus.GetService()
	if err != nil {
		return Controller{}, fmt.Errorf("failed to initialize storage: %w", err)
	}
	err = service.CheckConnection(context.Background())
	if err != nil {
		return Controller{}, fmt.Errorf("failed to connect to storage: %w", err)
	}

	allowedOrigins, err := GetAllowedOrigins()
	if err != nil {
		return Controller{}, fmt.Errorf("failed to parse allowed origins: %w", err)
	}

	providerConfigs, err := common.GetProviderConfigs()
	if err != nil {
		return Controller{}, fmt.Errorf("failed to load provider configs: %w", err)
	}

	broadcaster := broadcast.NewRegistry()
	registry := provider.NewRegistry(providerConfigs, common.GetMaxRetries())
	orchestrator := orchestrate.New(service, registry, broadcaster, orchestrate.DefaultConfig())

	return Controller{
		service:        service,
		orchestrator:   orchestrator,
		broadcaster:    broadcaster,
		allowedOrigins: allowedOrigins,
	}, nil
}

func DefineRoutes(ctrl Controller) *gin.Engine {
	r := gin.Default()
	r.ForwardedByClientIP = true
	r.SetTrustedProxies(nil)
	r.Use(otelgin.Middleware(chorus.ServiceName))
	r.Use(CORSMiddleware(ctrl.allowedOrigins))

	apiRoutes := r.Group("/api")
	apiRoutes.GET("/health", ctrl.HealthHandler)
	apiRoutes.POST("/rating", ctrl.CreateRatingHandler)

	chatRoutes := apiRoutes.Group("/chat")
	chatRoutes.POST("/new", ctrl.CreateChatHandler)
	chatRoutes.POST("/send", ctrl.SendMessageHandler)
	chatRoutes.GET("/:chatId/history", ctrl.ChatHistoryHandler)

	r.GET("/ws/chat/:chatId", ctrl.ChatWebsocketHandler)

	return r
}

func (ctrl *Controller) ErrorHandler(c *gin.Context, status int, err error) {
	zlog.Error().Err(err).Int("status", status).Str("path", c.Request.URL.Path).Msg("Request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}

func (ctrl *Controller) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": chorus.Version})
}

type createChatRequest struct {
	Title string `json:"title"`
}

// CreateChatHandler creates an empty chat, with the default title unless one
// is given.
func (ctrl *Controller) CreateChatHandler(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ctrl.ErrorHandler(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	title := req.Title
	if title == "" {
		title = domain.DefaultChatTitle
	}

	now := time.Now().UTC()
	chat := domain.Chat{
		Id:      "chat_" + ksuid.New().String(),
		Title:   title,
		Created: now,
		Updated: now,
	}
	if err := ctrl.service.PersistChat(c.Request.Context(), chat); err != nil {
		ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to create chat"))
		return
	}

	c.JSON(http.StatusOK, chat)
}

type sendMessageRequest struct {
	ChatId  string `json:"chatId"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

type sendMessageResponse struct {
	ChatId        string `json:"chatId"`
	UserMessageId string `json:"userMessageId"`
	Mode          string `json:"mode"`
}

// SendMessageHandler stores the user's turn and kicks off generation in the
// background. With no chatId a fresh chat is created; an unknown chatId is a
// 404. The response returns before any provider produces tokens; results
// arrive over the chat's websocket.
func (ctrl *Controller) SendMessageHandler(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.ErrorHandler(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Message == "" {
		ctrl.ErrorHandler(c, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()

	var chat domain.Chat
	if req.ChatId == "" {
		chat = domain.Chat{
			Id:      "chat_" + ksuid.New().String(),
			Title:   domain.DefaultChatTitle,
			Created: now,
			Updated: now,
		}
		if err := ctrl.service.PersistChat(ctx, chat); err != nil {
			ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to create chat"))
			return
		}
	} else {
		var err error
		chat, err = ctrl.service.GetChat(ctx, req.ChatId)
		if err != nil {
			if errors.Is(err, srv.ErrNotFound) {
				ctrl.ErrorHandler(c, http.StatusNotFound, errors.New("chat not found"))
			} else {
				ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to fetch chat"))
			}
			return
		}
		chat.Updated = now
		if err := ctrl.service.PersistChat(ctx, chat); err != nil {
			ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to update chat"))
			return
		}
	}

	userMessage := domain.Message{
		Id:      "msg_" + ksuid.New().String(),
		ChatId:  chat.Id,
		Content: req.Message,
		IsUser:  true,
		Created: now,
	}
	if err := ctrl.service.PersistMessage(ctx, userMessage); err != nil {
		ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to persist message"))
		return
	}

	mode := orchestrate.ParseMode(req.Mode)

	// the request context dies with the response, so generation runs on its own
	go ctrl.orchestrator.ProcessMessage(context.Background(), chat.Id, userMessage.Id, req.Message, mode)

	c.JSON(http.StatusOK, sendMessageResponse{
		ChatId:        chat.Id,
		UserMessageId: userMessage.Id,
		Mode:          string(mode),
	})
}

// MessageWithResponses pairs a message with the per-provider texts behind it.
// User messages have an empty response list.
type MessageWithResponses struct {
	domain.Message
	ProviderResponses []domain.ProviderResponse `json:"providerResponses"`
}

type chatHistoryResponse struct {
	Chat     domain.Chat            `json:"chat"`
	Messages []MessageWithResponses `json:"messages"`
}

// ChatHistoryHandler returns the chat with its messages in creation order,
// each generated message carrying its provider responses.
func (ctrl *Controller) ChatHistoryHandler(c *gin.Context) {
	chatId := c.Param("chatId")
	ctx := c.Request.Context()

	chat, err := ctrl.service.GetChat(ctx, chatId)
	if err != nil {
		if errors.Is(err, srv.ErrNotFound) {
			ctrl.ErrorHandler(c, http.StatusNotFound, errors.New("chat not found"))
		} else {
			ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to fetch chat"))
		}
		return
	}

	messages, err := ctrl.service.GetMessages(ctx, chatId)
	if err != nil {
		ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to fetch messages"))
		return
	}

	providerResponses, err := ctrl.service.GetProviderResponsesForChat(ctx, chatId)
	if err != nil {
		ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to fetch provider responses"))
		return
	}

	responsesByMessage := make(map[string][]domain.ProviderResponse)
	for _, response := range providerResponses {
		responsesByMessage[response.MessageId] = append(responsesByMessage[response.MessageId], response)
	}

	history := chatHistoryResponse{
		Chat:     chat,
		Messages: make([]MessageWithResponses, 0, len(messages)),
	}
	for _, message := range messages {
		history.Messages = append(history.Messages, MessageWithResponses{
			Message:           message,
			ProviderResponses: responsesByMessage[message.Id],
		})
	}

	c.JSON(http.StatusOK, history)
}

type createRatingRequest struct {
	ChatId    string `json:"chatId"`
	MessageId string `json:"messageId"`
	Score     int    `json:"score"`
}

// CreateRatingHandler records a thumbs up/down on a generated message. One
// rating per message: rating again overwrites the score.
func (ctrl *Controller) CreateRatingHandler(c *gin.Context) {
	var req createRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.ErrorHandler(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	rating := domain.Rating{
		Id:        "rating_" + ksuid.New().String(),
		MessageId: req.MessageId,
		Score:     req.Score,
		Created:   time.Now().UTC(),
	}
	if err := rating.ValidateScore(); err != nil {
		ctrl.ErrorHandler(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := ctrl.service.GetMessage(ctx, req.ChatId, req.MessageId); err != nil {
		if errors.Is(err, srv.ErrNotFound) {
			ctrl.ErrorHandler(c, http.StatusNotFound, errors.New("message not found"))
		} else {
			ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to fetch message"))
		}
		return
	}

	if err := ctrl.service.UpsertRating(ctx, rating); err != nil {
		ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to persist rating"))
		return
	}

	stored, err := ctrl.service.GetRating(ctx, req.MessageId)
	if err != nil {
		ctrl.ErrorHandler(c, http.StatusInternalServerError, errors.New("failed to fetch rating"))
		return
	}
	c.JSON(http.StatusOK, stored)
}

// wsSubscriber adapts one websocket connection to the broadcast registry.
// The registry serializes Send calls under its own lock, which satisfies
// gorilla's single-writer requirement.
type wsSubscriber struct {
	conn *websocket.Conn
}

func (s *wsSubscriber) Send(event broadcast.StreamEvent) error {
	return s.conn.WriteJSON(event)
}

// ChatWebsocketHandler subscribes the connection to the chat's token stream.
// Events flow one way; the read loop exists only to detect disconnects. No
// replay: a late joiner sees only tokens published after it subscribed.
func (ctrl *Controller) ChatWebsocketHandler(c *gin.Context) {
	chatId := c.Param("chatId")

	if _, err := ctrl.service.GetChat(c.Request.Context(), chatId); err != nil {
		if errors.Is(err, srv.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		} else {
			zlog.Error().Err(err).Str("chat_id", chatId).Msg("Error fetching chat")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch chat"})
		}
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     CheckWebSocketOrigin(ctrl.allowedOrigins),
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := &wsSubscriber{conn: conn}
	ctrl.broadcaster.Subscribe(chatId, sub)
	defer ctrl.broadcaster.Unsubscribe(chatId, sub)

	// Handle disconnection detection in a separate goroutine
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				zlog.Debug().Err(err).Str("chat_id", chatId).Msg("Websocket client disconnected")
				cancel()
				return
			}
		}
	}()

	<-ctx.Done()
}
