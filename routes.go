package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"briar-gateway/internal/handlers"
	"briar-gateway/internal/middleware"
	"briar-gateway/internal/telemetry"
)

type routes struct {
	contacts *handlers.ContactHandler
	messages *handlers.MessageHandler
	forums   *handlers.ForumHandler
	blogs    *handlers.BlogHandler
	events   interface{ Handle(c *gin.Context) }
	sessions handlers.SessionCounter
	auditor  *telemetry.AuditEmitter
	encoder  jsoniter.API
	log      *slog.Logger
	debug    bool
}

// registerRoutes mounts the API. Everything except the push channel requires the bearer token;
// the push channel authenticates in band.
func registerRoutes(router *gin.Engine, token string, r routes) {
	router.GET("/v1/ws", r.events.Handle)

	authorized := router.Group("/", middleware.AuthMiddleware(token))
	authorized.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(authorized, r.sessions, r.auditor, r.encoder, r.log, r.debug)

	v1 := authorized.Group("/v1")
	v1.GET("/contacts", r.contacts.ListContacts)
	v1.GET("/contacts/add/link", r.contacts.GetLink)
	v1.GET("/contacts/add/pending", r.contacts.ListPendingContacts)
	v1.POST("/contacts/add/pending", r.contacts.AddPendingContact)
	v1.DELETE("/contacts/add/pending", r.contacts.RemovePendingContact)
	v1.DELETE("/contacts/:contactId", r.contacts.DeleteContact)
	v1.PUT("/contacts/:contactId/alias", r.contacts.SetContactAlias)

	v1.GET("/messages/:contactId", r.messages.ListMessages)
	v1.POST("/messages/:contactId", r.messages.SendMessage)
	v1.POST("/messages/:contactId/read", r.messages.MarkMessageRead)
	v1.DELETE("/messages/:contactId/all", r.messages.DeleteAllMessages)

	v1.GET("/forums", r.forums.ListForums)
	v1.POST("/forums", r.forums.CreateForum)

	v1.GET("/blogs/posts", r.blogs.ListPosts)
	v1.POST("/blogs/posts", r.blogs.CreatePost)
}
