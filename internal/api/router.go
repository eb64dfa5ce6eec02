package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/LJTian/ReliefHub/internal/pipeline"
	"github.com/LJTian/ReliefHub/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Lister 公告查询
type Lister interface {
	ListAnnouncements(ctx context.Context, f storage.ListFilter) ([]storage.Announcement, error)
}

// Trigger 手动触发单个数据源
type Trigger interface {
	RunSource(ctx context.Context, name string) (pipeline.Result, error)
}

type Server struct {
	lister   Lister
	trigger  Trigger
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

// NewServer gatherer 为 nil 时不暴露 /metrics
func NewServer(lister Lister, trigger Trigger, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{lister: lister, trigger: trigger, gatherer: gatherer, log: log}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/announcements", s.listAnnouncements)
		v1.POST("/sources/:source/run", s.runSource)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listAnnouncements(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 50
	}

	items, err := s.lister.ListAnnouncements(c.Request.Context(), storage.ListFilter{
		Source: c.Query("source"),
		Tag:    c.Query("tag"),
		Limit:  limit,
	})
	if err != nil {
		s.log.Error("list announcements failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

// runSource 同步执行一轮，返回与定时任务相同的结果
func (s *Server) runSource(c *gin.Context) {
	name := c.Param("source")
	res, err := s.trigger.RunSource(c.Request.Context(), name)
	if errors.Is(err, pipeline.ErrUnknownSource) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("manual run failed", zap.String("source", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"success": res.Success,
		"message": res.Message,
		"added":   res.Added,
		"total":   res.Total,
		"error":   res.Error,
	})
}
