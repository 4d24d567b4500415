package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealhawk/internal/repository"
)

// Job is a runnable background job exposed on the ops surface.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// JobsHandler exposes job lock state and a manual run-now trigger for
// operators. Manual runs go through each job's normal lock discipline, so
// they cannot overlap a scheduled run.
type JobsHandler struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	BaseCtx context.Context
	Jobs    []Job
}

func (h *JobsHandler) Register(r *gin.Engine) {
	group := r.Group("/ops/jobs")
	group.GET("", h.list)
	group.POST("/:name/run", h.run)
}

type jobStatus struct {
	Name     string     `json:"name"`
	LockedAt *time.Time `json:"lockedAt"`
}

func (h *JobsHandler) list(c *gin.Context) {
	locks, err := h.Repo.ListJobLocks(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, "list job locks failed")
		return
	}
	lockedAt := make(map[string]*time.Time, len(locks))
	for i := range locks {
		lockedAt[locks[i].Name] = locks[i].LockedAt
	}
	statuses := make([]jobStatus, 0, len(h.Jobs))
	for _, job := range h.Jobs {
		statuses = append(statuses, jobStatus{Name: job.Name, LockedAt: lockedAt[job.Name]})
	}
	Ok(c, statuses)
}

func (h *JobsHandler) run(c *gin.Context) {
	name := c.Param("name")
	for _, job := range h.Jobs {
		if job.Name != name {
			continue
		}
		baseCtx := h.BaseCtx
		if baseCtx == nil {
			baseCtx = context.Background()
		}
		run := job.Run
		go func() {
			if err := run(baseCtx); err != nil {
				h.Logger.Warn("manual job run failed", zap.String("job", name), zap.Error(err))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "started", "job": name})
		return
	}
	Error(c, http.StatusNotFound, "unknown job")
}
