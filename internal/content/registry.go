package content

// FieldKind describes the declared shape of a registry field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindList
	KindImage
	KindImageList
	KindObjectList
	KindObject
)

// Field is one entry of the known-field registry.
type Field struct {
	ID    string
	Label string
	Kind  FieldKind
}

// Registry lists every field a normalized document is guaranteed to carry.
var Registry = []Field{
	{ID: "title", Label: "Title", Kind: KindText},
	{ID: "subtitle", Label: "Subtitle", Kind: KindText},
	{ID: "body", Label: "Body", Kind: KindText},
	{ID: "cta", Label: "Call to action", Kind: KindText},
	{ID: "phone", Label: "Phone", Kind: KindText},
	{ID: "email", Label: "Email", Kind: KindText},
	{ID: "address", Label: "Address", Kind: KindText},
	{ID: "applications", Label: "Applications", Kind: KindText},
	{ID: "key_benefits", Label: "Key benefits", Kind: KindText},
	{ID: "label_alert", Label: "Alert label", Kind: KindText},
	{ID: "label_applications", Label: "Applications label", Kind: KindText},
	{ID: "label_benefits", Label: "Benefits label", Kind: KindText},
	{ID: "label_features", Label: "Features label", Kind: KindText},
	{ID: "bullet_points", Label: "Bullet points", Kind: KindList},
	{ID: "image_data", Label: "Primary image", Kind: KindImage},
	{ID: "overlay_images", Label: "Overlay images", Kind: KindImageList},
	{ID: "custom_text_boxes", Label: "Custom text boxes", Kind: KindObjectList},
	{ID: "layers", Label: "Layers", Kind: KindObject},
	{ID: "effects", Label: "Effects", Kind: KindObject},
}

// aliasGroups maps each canonical key to the historical spellings it may be
// filled from, in lookup order. Every member is also a target, so the
// resolution is bidirectional.
var aliasGroups = []struct {
	target  string
	aliases []string
}{
	{"body", []string{"description", "message"}},
	{"description", []string{"body", "message"}},
	{"message", []string{"body", "description"}},
	{"cta", []string{"cta_text"}},
	{"cta_text", []string{"cta"}},
	{"key_benefits", []string{"benefits"}},
	{"benefits", []string{"key_benefits"}},
	{"subtitle", []string{"sub_title"}},
	{"sub_title", []string{"subtitle"}},
	{"bullet_points", []string{"features"}},
	{"features", []string{"bullet_points"}},
}

// StyledFields are the fields that carry style, overflow and box entries by
// default. Order is stable and used for iteration.
var StyledFields = []string{
	"title",
	"subtitle",
	"description",
	"bullets",
	"applications",
	"benefits",
	"label_alert",
	"label_features",
	"label_applications",
	"label_benefits",
}

// DefaultFontSize is the font size a field gets when nothing else is set.
// Templates treat it as "not overridden".
const DefaultFontSize = 14

// OverflowMode controls how a text field handles content that does not fit.
type OverflowMode string

const (
	OverflowWrap     OverflowMode = "wrap"
	OverflowClamp    OverflowMode = "clamp"
	OverflowEllipsis OverflowMode = "ellipsis"
	OverflowAutofit  OverflowMode = "autofit"
)

// Valid reports whether m is a known overflow mode.
func (m OverflowMode) Valid() bool {
	switch m {
	case OverflowWrap, OverflowClamp, OverflowEllipsis, OverflowAutofit:
		return true
	}
	return false
}

var defaultOverflow = map[string]Overflow{
	"title":              {Mode: OverflowAutofit, ClampLines: 1, MinSize: 16},
	"subtitle":           {Mode: OverflowAutofit, ClampLines: 2, MinSize: 12},
	"description":        {Mode: OverflowClamp, ClampLines: 6, MinSize: 10},
	"bullets":            {Mode: OverflowClamp, ClampLines: 8, MinSize: 10},
	"applications":       {Mode: OverflowClamp, ClampLines: 4, MinSize: 10},
	"benefits":           {Mode: OverflowClamp, ClampLines: 4, MinSize: 10},
	"label_alert":        {Mode: OverflowClamp, ClampLines: 1, MinSize: 8},
	"label_features":     {Mode: OverflowClamp, ClampLines: 1, MinSize: 8},
	"label_applications": {Mode: OverflowClamp, ClampLines: 1, MinSize: 8},
	"label_benefits":     {Mode: OverflowClamp, ClampLines: 1, MinSize: 8},
}

// fallbackOverflow applies to fields outside the default table.
var fallbackOverflow = Overflow{Mode: OverflowWrap, ClampLines: 3, MinSize: 10}

var defaultBoxes = map[string]Box{
	"title":              {X: 67, Y: 20, Width: 50, Height: 10, ZIndex: 12},
	"subtitle":           {X: 67, Y: 31, Width: 50, Height: 8, ZIndex: 12},
	"description":        {X: 67, Y: 44, Width: 52, Height: 18, ZIndex: 12},
	"bullets":            {X: 67, Y: 63, Width: 52, Height: 22, ZIndex: 12},
	"applications":       {X: 67, Y: 83, Width: 52, Height: 10, ZIndex: 12},
	"benefits":           {X: 67, Y: 92, Width: 52, Height: 8, ZIndex: 12},
	"label_alert":        {X: 67, Y: 56, Width: 24, Height: 4, ZIndex: 14},
	"label_features":     {X: 67, Y: 66, Width: 30, Height: 4, ZIndex: 14},
	"label_applications": {X: 67, Y: 83, Width: 30, Height: 4, ZIndex: 14},
	"label_benefits":     {X: 67, Y: 90, Width: 30, Height: 4, ZIndex: 14},
}

// fallbackBox is the base for caller-supplied boxes of fields that have no
// default entry.
var fallbackBox = Box{X: 50, Y: 50, Width: 30, Height: 10, ZIndex: 12}

// DefaultBox returns the built-in box for field and whether one exists.
func DefaultBox(field string) (Box, bool) {
	b, ok := defaultBoxes[field]
	return b, ok
}

// DefaultOverflow returns the built-in overflow settings for field.
func DefaultOverflow(field string) Overflow {
	if o, ok := defaultOverflow[field]; ok {
		return o
	}
	return fallbackOverflow
}

// Layer group identifiers.
const (
	GroupBackground = "background"
	GroupImage      = "image"
	GroupContent    = "content"
	GroupShapes     = "shapes"
	GroupOverlays   = "overlays"
	GroupFooter     = "footer"
	GroupCustomText = "customText"
)

// LayerGroupIDs lists the default groups in display order.
var LayerGroupIDs = []string{
	GroupBackground,
	GroupImage,
	GroupContent,
	GroupShapes,
	GroupOverlays,
	GroupFooter,
	GroupCustomText,
}

var baseGroup = LayerGroup{Visible: true, Locked: false, Opacity: 100, ZIndexOffset: 0}

func defaultGroup(id string) LayerGroup {
	g := baseGroup
	if id == GroupFooter {
		g.Locked = true
	}
	return g
}

// legacyLayerIDs maps editor layer ids to group ids.
var legacyLayerIDs = map[string]string{
	"overlay-images": GroupOverlays,
	"custom-text":    GroupCustomText,
}

// DefaultShapes returns a fresh copy of the corporate shape set installed
// when a document carries no shape collection.
func DefaultShapes() []Shape {
	return []Shape{
		{ID: "shape-right-panel", Type: ShapeRect, Name: "RightPanelBG", X: 84, Y: 52, Width: 32, Height: 88, Color: "#2f5f7a", Opacity: 100, ZIndex: 5, Thickness: 3, CircleMode: CircleEllipse},
		{ID: "shape-footer-bar", Type: ShapeRect, Name: "FooterBar", X: 50, Y: 97.5, Width: 100, Height: 5, Color: "#1f4a63", Opacity: 100, ZIndex: 5, Thickness: 3, CircleMode: CircleEllipse},
		{ID: "shape-footer-accent", Type: ShapeRect, Name: "FooterAccent", X: 95, Y: 97.5, Width: 10, Height: 5, Color: "#9ecb2d", Opacity: 100, ZIndex: 6, Thickness: 3, CircleMode: CircleEllipse},
	}
}
