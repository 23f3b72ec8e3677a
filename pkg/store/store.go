// Package store persists user-adjusted node positions per flowchart, so a
// layout survives dashboard reloads. Two backends exist: an in-process map
// for single-node deployments and MongoDB for shared ones.
package store

import (
	"context"
	"time"

	"github.com/valhq/flowscope/pkg/layout"
)

// SavedLayout is one persisted arrangement of a flowchart's nodes.
type SavedLayout struct {
	FlowchartID string             `json:"flowchartId" bson:"_id"`
	Algorithm   string             `json:"algorithm,omitempty" bson:"algorithm,omitempty"`
	Positions   layout.PositionMap `json:"positions" bson:"positions"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Store persists saved layouts keyed by flowchart id.
//
// Get reports ok=false for an unknown flowchart; backend failures come
// back as errors. Put overwrites any previous layout for the flowchart.
type Store interface {
	Get(ctx context.Context, flowchartID string) (SavedLayout, bool, error)
	Put(ctx context.Context, saved SavedLayout) error
	Delete(ctx context.Context, flowchartID string) error
	List(ctx context.Context) ([]SavedLayout, error)
	Close(ctx context.Context) error
}
