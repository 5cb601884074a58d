package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts the API under /api/v1. authMW guards every route and
// adminMW additionally guards /admin.
func (h *Handler) Register(router *gin.Engine, authMW, adminMW gin.HandlerFunc) {
	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(authMW)
	{
		userRoutes := apiV1.Group("/users")
		{
			userRoutes.GET("/me", h.GetMe)
			userRoutes.PUT("/me", h.RegisterMe)
			userRoutes.GET("/me/relations", h.GetRelations)
			userRoutes.GET("/me/relations/:set", h.GetRelationSet)
			userRoutes.GET("/me/stats", h.GetMyStats)
			userRoutes.GET("/:id", h.GetUserByID)
			userRoutes.GET("/:id/stats", h.GetUserStats)

			// Friendship routes
			userRoutes.POST("/:id/request", h.SendRequest)
			userRoutes.POST("/:id/accept", h.AcceptRequest)
			userRoutes.POST("/:id/ignore", h.IgnoreRequest)
			userRoutes.POST("/:id/cancel", h.CancelRequest)
			userRoutes.POST("/:id/unfriend", h.Unfriend)
		}

		recRoutes := apiV1.Group("/recommendations")
		{
			recRoutes.POST("", h.CreateRecommendation)
			recRoutes.GET("", h.ListRecommendations)
			recRoutes.GET("/:id", h.GetRecommendation)
			recRoutes.POST("/:id/vote", h.VoteRecommendation)
			recRoutes.PUT("/:id/vote-note", h.SetVoteNote)
			recRoutes.POST("/:id/viewed", h.MarkViewed)
			recRoutes.POST("/:id/archive", h.Archive)
			recRoutes.POST("/:id/unarchive", h.Unarchive)
		}

		groupRoutes := apiV1.Group("/groups")
		{
			groupRoutes.POST("", h.CreateGroup)
			groupRoutes.GET("", h.ListGroups)
		}

		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(adminMW)
		{
			adminRoutes.POST("/reconcile", h.Reconcile)
		}
	}
}
