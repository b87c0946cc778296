package prop

import "fmt"

const (
	PROP_ID_MASK   = 0xFFFF0000
	PROP_TYPE_MASK = 0xFFFF
)

// Type is the low word of a property tag.
type Type uint16

// Property types from MAPIDefs.h.
const (
	PT_UNSPECIFIED Type = 0x0000
	PT_NULL        Type = 0x0001
	PT_I2          Type = 0x0002
	PT_LONG        Type = 0x0003
	PT_R4          Type = 0x0004
	PT_DOUBLE      Type = 0x0005
	PT_CURRENCY    Type = 0x0006
	PT_APPTIME     Type = 0x0007
	PT_ERROR       Type = 0x000A
	PT_BOOLEAN     Type = 0x000B
	PT_OBJECT      Type = 0x000D
	PT_I8          Type = 0x0014
	PT_STRING8     Type = 0x001E
	PT_UNICODE     Type = 0x001F
	PT_SYSTIME     Type = 0x0040
	PT_CLSID       Type = 0x0048
	PT_BINARY      Type = 0x0102
	PT_PTR         Type = 0x0103

	MV_FLAG     Type = 0x1000
	MV_INSTANCE Type = 0x2000

	PT_MV_I2       = MV_FLAG | PT_I2
	PT_MV_LONG     = MV_FLAG | PT_LONG
	PT_MV_R4       = MV_FLAG | PT_R4
	PT_MV_DOUBLE   = MV_FLAG | PT_DOUBLE
	PT_MV_CURRENCY = MV_FLAG | PT_CURRENCY
	PT_MV_APPTIME  = MV_FLAG | PT_APPTIME
	PT_MV_SYSTIME  = MV_FLAG | PT_SYSTIME
	PT_MV_STRING8  = MV_FLAG | PT_STRING8
	PT_MV_BINARY   = MV_FLAG | PT_BINARY
	PT_MV_UNICODE  = MV_FLAG | PT_UNICODE
	PT_MV_CLSID    = MV_FLAG | PT_CLSID
	PT_MV_I8       = MV_FLAG | PT_I8
)

var typeNames = map[Type]string{
	PT_UNSPECIFIED: "PT_UNSPECIFIED",
	PT_NULL:        "PT_NULL",
	PT_I2:          "PT_I2",
	PT_LONG:        "PT_LONG",
	PT_R4:          "PT_R4",
	PT_DOUBLE:      "PT_DOUBLE",
	PT_CURRENCY:    "PT_CURRENCY",
	PT_APPTIME:     "PT_APPTIME",
	PT_ERROR:       "PT_ERROR",
	PT_BOOLEAN:     "PT_BOOLEAN",
	PT_OBJECT:      "PT_OBJECT",
	PT_I8:          "PT_I8",
	PT_STRING8:     "PT_STRING8",
	PT_UNICODE:     "PT_UNICODE",
	PT_SYSTIME:     "PT_SYSTIME",
	PT_CLSID:       "PT_CLSID",
	PT_BINARY:      "PT_BINARY",
	PT_PTR:         "PT_PTR",
	PT_MV_I2:       "PT_MV_I2",
	PT_MV_LONG:     "PT_MV_LONG",
	PT_MV_R4:       "PT_MV_R4",
	PT_MV_DOUBLE:   "PT_MV_DOUBLE",
	PT_MV_CURRENCY: "PT_MV_CURRENCY",
	PT_MV_APPTIME:  "PT_MV_APPTIME",
	PT_MV_SYSTIME:  "PT_MV_SYSTIME",
	PT_MV_STRING8:  "PT_MV_STRING8",
	PT_MV_BINARY:   "PT_MV_BINARY",
	PT_MV_UNICODE:  "PT_MV_UNICODE",
	PT_MV_CLSID:    "PT_MV_CLSID",
	PT_MV_I8:       "PT_MV_I8",
}

// NewType validates t. Types that are not known, ignoring MV_INSTANCE, become
// PT_UNSPECIFIED.
func NewType(t uint16) Type {
	if _, ok := typeNames[Type(t)&^MV_INSTANCE]; ok {
		return Type(t)
	}
	return PT_UNSPECIFIED
}

// AddFlags sets the bits of mask that fall in the type word.
func (t Type) AddFlags(mask uint32) Type {
	return t | Type(mask&PROP_TYPE_MASK)
}

// RemoveFlags clears the bits of mask that fall in the type word.
func (t Type) RemoveFlags(mask uint32) Type {
	return t &^ Type(mask&PROP_TYPE_MASK)
}

// IsMultiValued reports whether MV_FLAG is set.
func (t Type) IsMultiValued() bool {
	return t&MV_FLAG != 0
}

func (t Type) String() string {
	base := t &^ MV_INSTANCE
	name, ok := typeNames[base]
	if !ok {
		return fmt.Sprintf("PT_0x%04X", uint16(t))
	}
	if t&MV_INSTANCE != 0 {
		return name + "|MV_INSTANCE"
	}
	return name
}

// Tag is a property tag: the property id in the high word, its type in the low.
type Tag uint32

// NewTag combines a type and an id.
func NewTag(t Type, id uint16) Tag {
	return Tag(uint32(id)<<16 | uint32(t))
}

// ID returns the property id.
func (t Tag) ID() uint16 {
	return uint16((uint32(t) & PROP_ID_MASK) >> 16)
}

// Type returns the validated property type.
func (t Tag) Type() Type {
	return NewType(uint16(uint32(t) & PROP_TYPE_MASK))
}

// ChangeType returns the tag with the same id and type pt.
func (t Tag) ChangeType(pt Type) Tag {
	return NewTag(pt, t.ID())
}

func (t Tag) String() string {
	return fmt.Sprintf("0x%08X (id 0x%04X, %v)", uint32(t), t.ID(), t.Type())
}
