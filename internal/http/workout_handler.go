package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WorkoutHandler expone la recarga del catálogo de ejercicios.
type WorkoutHandler struct {
	logger *zap.Logger
}

func NewWorkoutHandler(logger *zap.Logger) *WorkoutHandler {
	return &WorkoutHandler{logger: logger}
}

// RefreshExercises maneja POST /exercises/refresh.
func (h *WorkoutHandler) RefreshExercises(c *gin.Context) {
	container := mustContainer(c)
	if container == nil {
		return
	}
	ctx := actionContext(c)

	if _, err := container.Workout.FetchExercises(ctx); err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	if _, err := container.Workout.FetchExerciseTypes(ctx); err != nil {
		respondStoreError(c, err, http.StatusBadRequest)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workout": container.Workout.Snapshot()})
}
