package api

import (
	"github.com/gin-gonic/gin"
	"github.com/idhub-dev/groups/internal/authority"
	"github.com/idhub-dev/groups/internal/config"
	"github.com/idhub-dev/groups/internal/guard"
	"github.com/idhub-dev/groups/internal/http/api/handlers"
	"github.com/idhub-dev/groups/internal/idp"
	"github.com/idhub-dev/groups/internal/notify"
	"github.com/idhub-dev/groups/internal/store"
	"gorm.io/gorm"
)

// RegisterRoutes registers routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, conn *gorm.DB, jwtCfg config.JWTConfig, provider idp.Provider, notifier notify.Notifier) {
	if r == nil || conn == nil {
		return
	}

	users := store.NewUserStore(conn)
	groups := store.NewGroupStore(conn)
	roles := store.NewRoleStore(conn)
	members := store.NewMemberStore(conn)
	clients := store.NewClientStore(conn)

	groupHandler := handlers.NewGroupHandler(groups, members)
	roleHandler := handlers.NewRoleHandler(roles, members)
	clientHandler := handlers.NewClientHandler(clients, notifier)
	externalHandler := handlers.NewExternalHandler(clients, users, provider, jwtCfg)

	v1 := r.Group("/v1")

	clientRoutes := v1.Group("/client")
	clientRoutes.POST("", clientHandler.Register)
	clientRoutes.DELETE("", clientHandler.Delete)
	clientRoutes.GET("/info", externalHandler.Info)

	certified := clientRoutes.Group("")
	certified.Use(ClientBasicAuthMiddleware(clients))
	certified.POST("/certify", externalHandler.Certify)

	groupRoutes := v1.Group("/group")
	groupRoutes.Use(UserAuthMiddleware(provider, users))

	byGroup := guard.PathParam("uuid")

	groupRoutes.POST("", groupHandler.Create)
	groupRoutes.GET("", groupHandler.List)
	groupRoutes.GET("/:uuid", groupHandler.Get)
	groupRoutes.PATCH("/:uuid", guard.Require(members, byGroup, authority.GroupUpdate), groupHandler.Update)
	groupRoutes.DELETE("/:uuid", guard.Require(members, byGroup, authority.GroupDelete), groupHandler.Delete)

	groupRoutes.GET("/:uuid/role", roleHandler.List)
	groupRoutes.POST("/:uuid/role", guard.Require(members, byGroup, authority.RoleCreate), roleHandler.Create)
	groupRoutes.PATCH("/:uuid/role/:id", guard.Require(members, byGroup, authority.RoleUpdate), roleHandler.Update)
	groupRoutes.DELETE("/:uuid/role/:id", guard.Require(members, byGroup, authority.RoleDelete), roleHandler.Delete)

	groupRoutes.GET("/:uuid/role/:id/user", guard.Require(members, byGroup, authority.MemberUpdate), roleHandler.ListMembers)
	groupRoutes.POST("/:uuid/role/:id/user", guard.Require(members, byGroup, authority.MemberUpdate), roleHandler.Assign)
	groupRoutes.DELETE("/:uuid/role/:id/user/:userUuid", guard.Require(members, byGroup, authority.MemberDelete), roleHandler.Revoke)

	groupRoutes.POST("/:uuid/role/:id/external", guard.Require(members, byGroup, authority.RoleUpdate), externalHandler.Grant)
	groupRoutes.DELETE("/:uuid/role/:id/external", guard.Require(members, byGroup, authority.RoleUpdate), externalHandler.RevokeGrant)
}
