package schemas

import "fmt"

// -- Component Usage Schemas --

// ComponentType categorizes a UI component. The set is open: collectors may
// report types outside this list and the pipeline treats them as opaque
// categories.
type ComponentType string

// Constants for the component types commonly reported by collectors.
const (
	ComponentButton     ComponentType = "button"
	ComponentCard       ComponentType = "card"
	ComponentInput      ComponentType = "input"
	ComponentForm       ComponentType = "form"
	ComponentList       ComponentType = "list"
	ComponentTable      ComponentType = "table"
	ComponentChart      ComponentType = "chart"
	ComponentNavigation ComponentType = "navigation"
	ComponentMenu       ComponentType = "menu"
	ComponentModal      ComponentType = "modal"
	ComponentImage      ComponentType = "image"
	ComponentText       ComponentType = "text"
	ComponentContainer  ComponentType = "container"
)

// ScrollBehavior describes how a component participates in page scrolling.
type ScrollBehavior string

// Constants for observed scroll behaviors.
const (
	ScrollStatic   ScrollBehavior = "static"   // Component does not move with scroll.
	ScrollFlow     ScrollBehavior = "flow"     // Component scrolls with the document.
	ScrollSticky   ScrollBehavior = "sticky"   // Component pins after a threshold.
	ScrollParallax ScrollBehavior = "parallax" // Component moves at a different rate than the document.
)

// ImportanceTier ranks how central a component is to the page's purpose.
type ImportanceTier string

// Constants for the importance tiers assigned by collectors.
const (
	ImportanceCritical  ImportanceTier = "critical"
	ImportancePrimary   ImportanceTier = "primary"
	ImportanceSecondary ImportanceTier = "secondary"
	ImportanceAuxiliary ImportanceTier = "auxiliary"
)

// PropertyUsage records how one responsive CSS property of a component was
// observed in production: which token drives it, its base value, and the
// values actually rendered at each breakpoint.
type PropertyUsage struct {
	Property string `json:"property"` // CSS property name (e.g., "font-size").
	Token    string `json:"token"`    // Design token driving the property, if any.

	BaseValue float64 `json:"baseValue"` // Value at the reference viewport.

	// ResponsiveValues maps breakpoint name to the observed rendered value.
	// The map may be empty but must not be nil; a nil map marks the record
	// as malformed collector output.
	ResponsiveValues map[string]float64 `json:"responsiveValues"`

	UsageFrequency float64 `json:"usageFrequency"` // Relative render frequency in [0,1].
}

// PerformanceSnapshot aggregates the runtime cost observations for one
// component. Metrics a collector could not measure are nil and are excluded
// from statistics rather than treated as zero.
type PerformanceSnapshot struct {
	RenderTimeMS     *float64 `json:"renderTimeMs,omitempty"`     // Mean render time in milliseconds.
	LayoutShiftScore *float64 `json:"layoutShiftScore,omitempty"` // Cumulative layout shift contribution.
	MemoryKB         *float64 `json:"memoryKb,omitempty"`         // Retained memory in kilobytes.
	BundleSizeKB     *float64 `json:"bundleSizeKb,omitempty"`     // Shipped code size in kilobytes.
}

// InteractionSnapshot aggregates user-behavior observations for one component.
type InteractionSnapshot struct {
	InteractionRate    float64        `json:"interactionRate"`    // Interactions per view in [0,1].
	AvgViewTimeMS      float64        `json:"avgViewTimeMs"`      // Mean time in viewport, milliseconds.
	ScrollBehavior     ScrollBehavior `json:"scrollBehavior"`     // Observed scroll participation.
	AccessibilityScore float64        `json:"accessibilityScore"` // Audit score in [0,1].
}

// StructuralContext places the component within the page structure.
type StructuralContext struct {
	Parent         ComponentType  `json:"parent,omitempty"`   // Enclosing component type.
	ChildCount     int            `json:"childCount"`         // Number of direct children.
	LayoutPosition string         `json:"layoutPosition"`     // Declared slot (header, sidebar, hero, ...).
	Importance     ImportanceTier `json:"importance"`         // Collector-assigned importance tier.
}

// ComponentUsageData is one component's full usage observation: identity,
// per-property records, and performance/interaction/structural snapshots.
// It is produced by data-collection collaborators; this module only consumes
// the shape.
type ComponentUsageData struct {
	ComponentID   string        `json:"componentId"`
	ComponentType ComponentType `json:"componentType"`

	// Properties may be empty for a component with no responsive properties,
	// but a nil slice marks the record as malformed.
	Properties []PropertyUsage `json:"properties"`

	Performance PerformanceSnapshot `json:"performance"`
	Interaction InteractionSnapshot `json:"interaction"`
	Context     StructuralContext   `json:"context"`
}

// WellFormed checks the structural invariants a collector must uphold:
// slices and maps may be empty but never nil. It returns a descriptive error
// naming the offending field.
func (u *ComponentUsageData) WellFormed() error {
	if u == nil {
		return fmt.Errorf("usage record is nil")
	}
	if u.Properties == nil {
		return fmt.Errorf("component %q: properties list is null", u.ComponentID)
	}
	for i, p := range u.Properties {
		if p.ResponsiveValues == nil {
			return fmt.Errorf("component %q: property %q (index %d) has null responsiveValues", u.ComponentID, p.Property, i)
		}
	}
	return nil
}
