package schema

import "fmt"

// FieldType is one of the five scalar/vector kinds spec.md §3.3 allows.
type FieldType int

const (
	I32 FieldType = iota
	I64
	F32
	F64
	F32Vec3
)

func (t FieldType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case F32Vec3:
		return "[f32;3]"
	default:
		return "unknown"
	}
}

// ByteSize is the packed-binary width of the type, used by both codecs and
// the HDF5 compound-type builder.
func (t FieldType) ByteSize() int {
	switch t {
	case I32, F32:
		return 4
	case I64, F64:
		return 8
	case F32Vec3:
		return 12
	default:
		return 0
	}
}

// GoType is the Go type used for the field in the generated record.
func (t FieldType) GoType() string {
	switch t {
	case I32:
		return "int32"
	case I64:
		return "int64"
	case F32:
		return "float32"
	case F64:
		return "float64"
	case F32Vec3:
		return "[3]float32"
	default:
		return "interface{}"
	}
}

// Member names which generated record a field belongs to.
type Member int

const (
	MemberHalo Member = iota
	MemberGalaxy
)

func (m Member) String() string {
	if m == MemberHalo {
		return "halo"
	}
	return "galaxy"
}

// DefaultRule names how a field's initial value is produced when a working
// halo is first constructed with no occupied progenitor to copy from
// (spec.md §3.3, §4.3.3 init_halo).
type DefaultRule int

const (
	// DefaultZero zero-initialises the field.
	DefaultZero DefaultRule = iota
	// DefaultFromInputTree copies the field from the raw halo at
	// construction time.
	DefaultFromInputTree
	// DefaultFromVirial derives the field via the virial helpers in
	// spec.md §4.4.
	DefaultFromVirial
	// DefaultCopyFromParent means the field is ordinarily carried over
	// bytewise from a progenitor (handled by the halo engine's copy
	// path, not by this initialiser); with no progenitor it defaults to
	// zero, same as DefaultZero.
	DefaultCopyFromParent
	// DefaultLiteral uses Field.Literal verbatim.
	DefaultLiteral
)

// Field is one row of the schema table: a single property declaration
// shared by the in-memory record, the halo-constructor initialiser, and
// the output descriptor.
type Field struct {
	Name    string
	Type    FieldType
	Member  Member
	Units   string
	Default DefaultRule
	Literal interface{} // only meaningful when Default == DefaultLiteral
	Output  bool
}

// HaloFields declares every Halo-record property (spec.md §3.1's Halo
// working record, including the engine-maintained bookkeeping fields).
// Declaration order is the order both output codecs serialise in.
var HaloFields = []Field{
	{Name: "Pos", Type: F32Vec3, Member: MemberHalo, Units: "Mpc/h (comoving)", Default: DefaultFromInputTree, Output: true},
	{Name: "Vel", Type: F32Vec3, Member: MemberHalo, Units: "km/s", Default: DefaultFromInputTree, Output: true},
	{Name: "Spin", Type: F32Vec3, Member: MemberHalo, Units: "Mpc/h km/s", Default: DefaultFromInputTree, Output: true},
	{Name: "Len", Type: I32, Member: MemberHalo, Units: "particles", Default: DefaultFromInputTree, Output: true},
	{Name: "Mvir", Type: F32, Member: MemberHalo, Units: "1e10 Msun/h", Default: DefaultFromVirial, Output: true},
	{Name: "Rvir", Type: F32, Member: MemberHalo, Units: "Mpc/h", Default: DefaultFromVirial, Output: true},
	{Name: "Vvir", Type: F32, Member: MemberHalo, Units: "km/s", Default: DefaultFromVirial, Output: true},
	{Name: "Vmax", Type: F32, Member: MemberHalo, Units: "km/s", Default: DefaultFromInputTree, Output: true},
	{Name: "VelDisp", Type: F32, Member: MemberHalo, Units: "km/s", Default: DefaultFromInputTree, Output: true},
	{Name: "CentralMvir", Type: F32, Member: MemberHalo, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "InfallMvir", Type: F32, Member: MemberHalo, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "InfallVvir", Type: F32, Member: MemberHalo, Units: "km/s", Default: DefaultCopyFromParent, Output: true},
	{Name: "InfallVmax", Type: F32, Member: MemberHalo, Units: "km/s", Default: DefaultCopyFromParent, Output: true},
	{Name: "InfallSnap", Type: I32, Member: MemberHalo, Units: "snapshot", Default: DefaultLiteral, Literal: int32(-1), Output: true},
	{Name: "DT", Type: F64, Member: MemberHalo, Units: "internal time", Default: DefaultZero, Output: true},
	{Name: "DeltaMvir", Type: F32, Member: MemberHalo, Units: "1e10 Msun/h", Default: DefaultZero, Output: true},
	{Name: "SnapNum", Type: I32, Member: MemberHalo, Units: "snapshot", Default: DefaultFromInputTree, Output: true},
	{Name: "Type", Type: I32, Member: MemberHalo, Units: "0=central 1=satellite 2=orphan 3=merged-away", Default: DefaultLiteral, Literal: int32(0), Output: true},
	{Name: "HaloNr", Type: I32, Member: MemberHalo, Units: "raw halo index", Default: DefaultZero, Output: false},
	{Name: "CentralHalo", Type: I32, Member: MemberHalo, Units: "workspace index", Default: DefaultZero, Output: false},
	{Name: "MergeStatus", Type: I32, Member: MemberHalo, Default: DefaultZero, Output: false},
	{Name: "MergeIntoID", Type: I32, Member: MemberHalo, Default: DefaultLiteral, Literal: int32(-1), Output: true},
	{Name: "MergeIntoSnapNum", Type: I32, Member: MemberHalo, Units: "snapshot", Default: DefaultLiteral, Literal: int32(-1), Output: true},
	{Name: "MergTime", Type: F64, Member: MemberHalo, Units: "internal time", Default: DefaultLiteral, Literal: MergTimeSentinel, Output: true},
	{Name: "UniqueHaloID", Type: I64, Member: MemberHalo, Default: DefaultZero, Output: true},
	{Name: "MostBoundID", Type: I64, Member: MemberHalo, Default: DefaultFromInputTree, Output: true},
}

// GalaxyFields declares every Galaxy-record property (spec.md §3.1's
// Galaxy, owned exclusively by one working Halo). All default to
// copy-from-parent because a Galaxy is deep-copied wholesale on progenitor
// inheritance (spec.md §3.2, §9); with no progenitor, init_halo leaves
// them at zero, same fallback as DefaultZero.
var GalaxyFields = []Field{
	{Name: "StellarMass", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "ColdGas", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "HotGas", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "EjectedMass", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "BlackHoleMass", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "MetalsColdGas", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "MetalsHotGas", Type: F32, Member: MemberGalaxy, Units: "1e10 Msun/h", Default: DefaultCopyFromParent, Output: true},
	{Name: "Sfr", Type: F32, Member: MemberGalaxy, Units: "Msun/yr", Default: DefaultCopyFromParent, Output: true},
	{Name: "Cooling", Type: F32, Member: MemberGalaxy, Units: "erg/s", Default: DefaultCopyFromParent, Output: true},
}

// MergTimeSentinel marks "never merging" (spec.md §4.3.3's "∞-sentinel").
// A huge finite value is used rather than math.Inf so every codec -
// including the packed-binary reader on architectures with stricter FP
// trap behaviour - can round-trip it without special-casing NaN/Inf.
const MergTimeSentinel float64 = 1e20

// AllFields returns HaloFields followed by GalaxyFields, the declaration
// order both codecs must serialise in (spec.md §3.3).
func AllFields() []Field {
	all := make([]Field, 0, len(HaloFields)+len(GalaxyFields))
	all = append(all, HaloFields...)
	all = append(all, GalaxyFields...)
	return all
}

// OutputFields returns the subset of AllFields with Output set, in the
// same declaration order, used by the output descriptor (§3.3, §4.6).
func OutputFields() []Field {
	var out []Field
	for _, f := range AllFields() {
		if f.Output {
			out = append(out, f)
		}
	}
	return out
}

// Validate enforces the schema-pipeline invariants from spec.md §3.3: a
// property marked output must exist in the record (trivially true here,
// since Output is a flag on a record field, not a separate declaration),
// and two records may declare the same property name only under an
// identical type.
func Validate() error {
	seen := make(map[string]FieldType)
	for _, f := range AllFields() {
		if existing, ok := seen[f.Name]; ok {
			if existing != f.Type {
				return fmt.Errorf("schema: field %q declared with conflicting types %s and %s", f.Name, existing, f.Type)
			}
			continue
		}
		seen[f.Name] = f.Type
		if f.Default == DefaultLiteral && f.Literal == nil {
			return fmt.Errorf("schema: field %q uses DefaultLiteral with no Literal value", f.Name)
		}
	}
	return nil
}
