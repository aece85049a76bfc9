// internal/features/heuristics.go
package features

import "github.com/xkilldash9x/scaletuner/api/schemas"

// DeviceBucket names one class in the inferred device mix.
type DeviceBucket string

// Constants for the device classes layout positions bucket into.
const (
	DeviceDesktop DeviceBucket = "desktop"
	DeviceTablet  DeviceBucket = "tablet"
	DeviceMobile  DeviceBucket = "mobile"
	DeviceOther   DeviceBucket = "other"
)

// defaultDeviceBuckets maps a declared layout position to the device class
// that most commonly renders it. Positions absent from the table fall into
// DeviceOther. Callers with real traffic data should override the table via
// WithDeviceHeuristic rather than rely on these priors.
var defaultDeviceBuckets = map[string]DeviceBucket{
	"sidebar":    DeviceDesktop,
	"header":     DeviceDesktop,
	"footer":     DeviceDesktop,
	"navigation": DeviceDesktop,
	"toolbar":    DeviceDesktop,

	"inline":    DeviceTablet,
	"grid":      DeviceTablet,
	"card-grid": DeviceTablet,

	"hero":    DeviceMobile,
	"overlay": DeviceMobile,
	"drawer":  DeviceMobile,
	"sheet":   DeviceMobile,
}

// defaultArchetypes maps a dominant component type to an application
// archetype. Dominance is decided by dominanceThreshold; types absent from
// the table, and mixed populations, yield ArchetypeGenericMixed.
var defaultArchetypes = map[schemas.ComponentType]schemas.Archetype{
	schemas.ComponentButton: schemas.ArchetypeFormApp,
	schemas.ComponentInput:  schemas.ArchetypeFormApp,
	schemas.ComponentForm:   schemas.ArchetypeFormApp,

	schemas.ComponentCard: schemas.ArchetypeContentApp,
	schemas.ComponentList: schemas.ArchetypeContentApp,
	schemas.ComponentText: schemas.ArchetypeContentApp,

	schemas.ComponentChart: schemas.ArchetypeDashboard,
	schemas.ComponentTable: schemas.ArchetypeDashboard,

	schemas.ComponentNavigation: schemas.ArchetypeNavigationHeavy,
	schemas.ComponentMenu:       schemas.ArchetypeNavigationHeavy,

	schemas.ComponentImage: schemas.ArchetypeMediaApp,
}

// dominanceThreshold is the share of the component population a single type
// needs before the archetype heuristic considers it dominant.
const dominanceThreshold = 0.6

// defaultIndustry is the label used absent an explicit signal.
const defaultIndustry = "general"

// industries is the closed label set the vector encoding recognizes, in
// one-hot order. The generic label comes first.
var industries = [...]string{defaultIndustry, "ecommerce", "media", "saas"}
