package engine

import (
	"context"

	"github.com/Veraticus/ecomap/internal/model"
)

// Recorder persists completed runs and their labels.
type Recorder interface {
	SaveRun(ctx context.Context, run *model.Run, labels model.Labels) error
}

// Progress receives partition completion events. Done may be called from
// several goroutines.
type Progress interface {
	Start(total int)
	Done(partition string, points int)
	Finish()
}
