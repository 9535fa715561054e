// Package units implements unit-aware physical measurements for print layout.
//
// The central type is [UnitStr], an immutable scalar dimension stored
// canonically as decimal inches and convertible between inches, millimeters,
// centimeters, points, and pixels at an arbitrary DPI. [UnitStrGeometry]
// composes six UnitStr values into a rectangle plus an independent position,
// the unit of account for every template, element, and layout slot.
//
// All values are quantized on an internal grid of 1e-9 inches, so conversion
// round-trips are exact: parsing "2.5in" and "6.35cm" yields the same pixel
// value at any fixed DPI.
package units

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/prototypyside/prototypyside/pkg/errors"
)

// Unit identifies a supported measurement unit.
type Unit int

const (
	In Unit = iota // inches (canonical internal unit)
	Mm             // millimeters
	Cm             // centimeters
	Pt             // typographic points (1/72 in)
	Px             // pixels at a working DPI
)

// DefaultDPI is the working DPI assumed when none is supplied.
const DefaultDPI = 300

// String returns the short suffix for the unit ("in", "mm", ...).
func (u Unit) String() string {
	switch u {
	case In:
		return "in"
	case Mm:
		return "mm"
	case Cm:
		return "cm"
	case Pt:
		return "pt"
	case Px:
		return "px"
	}
	return "in"
}

// ParseUnit resolves a unit token, accepting the aliases the template format
// allows: `"` and "inch"/"inches" for inches, "pixel"/"pixels" for pixels.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", `"`, "''", "inch", "inches":
		return In, nil
	case "mm":
		return Mm, nil
	case "cm":
		return Cm, nil
	case "pt":
		return Pt, nil
	case "px", "pixel", "pixels":
		return Px, nil
	}
	return In, errors.New(errors.ErrCodeParse, "unsupported unit: %q", s)
}

// Quantization grids, matching the canonical storage contract:
// 1e-9in internally, 1e-6 of the target unit on output.
const (
	placesIn  = 9
	placesOut = 6
)

// unitsPerInch holds the exact per-inch factor for each absolute unit.
var unitsPerInch = map[Unit]decimal.Decimal{
	In: decimal.NewFromInt(1),
	Mm: decimal.RequireFromString("25.4"),
	Cm: decimal.RequireFromString("2.54"),
	Pt: decimal.NewFromInt(72),
}

// roundingIncrement is the print-friendly snap grid per unit, used by Round.
var roundingIncrement = map[Unit]decimal.Decimal{
	In: decimal.RequireFromString("0.01"),
	Mm: decimal.RequireFromString("0.1"),
	Cm: decimal.RequireFromString("0.1"),
	Pt: decimal.NewFromInt(1),
	Px: decimal.NewFromInt(1),
}

// UnitStr is an immutable physical measurement. The zero value is 0 inches
// at the default DPI. Every operation returns a new value; nothing mutates.
type UnitStr struct {
	inches decimal.Decimal // canonical, quantized to 1e-9 in
	unit   Unit            // display unit
	dpi    int             // working DPI for pixel conversions
}

// literalRE matches "<number><unit>" optionally followed by "@<dpi>",
// e.g. "2.5in", "-3 mm", ".5in", "150px@300".
var literalRE = regexp.MustCompile(`^\s*(-?(?:\d+(?:\.\d+)?|\.\d+))\s*([a-zA-Z"']+)?(?:@(\d+))?\s*$`)

// Parse builds a UnitStr from a literal such as "2.5in", "63.5 mm" or
// "750px@300". A bare number is treated as pixels at the default DPI,
// matching the template format's unadorned numeric fields.
func Parse(raw string) (UnitStr, error) {
	m := literalRE.FindStringSubmatch(raw)
	if m == nil {
		return UnitStr{}, errors.New(errors.ErrCodeParse, "invalid dimension string: %q", raw)
	}
	val, err := decimal.NewFromString(m[1])
	if err != nil {
		return UnitStr{}, errors.Wrap(errors.ErrCodeParse, err, "invalid magnitude in %q", raw)
	}

	unit := Px
	if m[2] != "" {
		unit, err = ParseUnit(m[2])
		if err != nil {
			return UnitStr{}, err
		}
	}

	dpi := DefaultDPI
	if m[3] != "" {
		dpi, err = strconv.Atoi(m[3])
		if err != nil || dpi <= 0 {
			return UnitStr{}, errors.New(errors.ErrCodeParse, "DPI must be > 0 in %q", raw)
		}
	}
	return fromDecimal(val, unit, dpi), nil
}

// MustParse is Parse for trusted literals; it panics on malformed input.
func MustParse(raw string) UnitStr {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// FromValue builds a UnitStr from a numeric magnitude in the given unit.
// dpi <= 0 selects the default DPI.
func FromValue(v float64, unit Unit, dpi int) UnitStr {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return fromDecimal(decimal.NewFromFloat(v), unit, dpi)
}

// FromPx builds a UnitStr from a pixel measurement at the given DPI.
func FromPx(px float64, dpi int) UnitStr {
	return FromValue(px, Px, dpi)
}

func fromDecimal(v decimal.Decimal, unit Unit, dpi int) UnitStr {
	var inches decimal.Decimal
	if unit == Px {
		inches = v.Div(decimal.NewFromInt(int64(dpi))).Round(placesIn)
	} else {
		inches = v.Div(unitsPerInch[unit]).Round(placesIn)
	}
	if inches.IsZero() {
		inches = decimal.Zero // collapse -0
	}
	return UnitStr{inches: inches, unit: unit, dpi: dpi}
}

// Unit returns the display unit the value was expressed in.
func (u UnitStr) Unit() Unit { return u.unit }

// DPI returns the working DPI bound to this value.
func (u UnitStr) DPI() int {
	if u.dpi <= 0 {
		return DefaultDPI
	}
	return u.dpi
}

// Inches returns the canonical decimal-inch magnitude.
func (u UnitStr) Inches() decimal.Decimal { return u.inches }

// To returns a new UnitStr expressed in the target unit. dpi <= 0 keeps the
// value's own working DPI. Supplying a DPI for non-pixel targets is a no-op
// on the magnitude; it only updates the working DPI carried along.
func (u UnitStr) To(target Unit, dpi int) UnitStr {
	if dpi <= 0 {
		dpi = u.DPI()
	}
	return UnitStr{inches: u.inches, unit: target, dpi: dpi}
}

// Value returns the numeric magnitude in the display unit, quantized to
// 1e-6 of that unit.
func (u UnitStr) Value() float64 {
	return u.valueIn(u.unit, u.DPI())
}

func (u UnitStr) valueIn(unit Unit, dpi int) float64 {
	var out decimal.Decimal
	if unit == Px {
		out = u.inches.Mul(decimal.NewFromInt(int64(dpi)))
	} else {
		out = u.inches.Mul(unitsPerInch[unit])
	}
	f, _ := out.Round(placesOut).Float64()
	return f
}

// In returns the magnitude in inches.
func (u UnitStr) In() float64 { return u.valueIn(In, u.DPI()) }

// MM returns the magnitude in millimeters.
func (u UnitStr) MM() float64 { return u.valueIn(Mm, u.DPI()) }

// CM returns the magnitude in centimeters.
func (u UnitStr) CM() float64 { return u.valueIn(Cm, u.DPI()) }

// PT returns the magnitude in points.
func (u UnitStr) PT() float64 { return u.valueIn(Pt, u.DPI()) }

// Px returns the magnitude in pixels at the given DPI.
// dpi <= 0 uses the value's own working DPI.
func (u UnitStr) Px(dpi int) float64 {
	if dpi <= 0 {
		dpi = u.DPI()
	}
	return u.valueIn(Px, dpi)
}

// Add returns u + o. The result keeps u's display unit and DPI.
func (u UnitStr) Add(o UnitStr) UnitStr {
	return u.withInches(u.inches.Add(o.inches))
}

// Sub returns u - o. The result keeps u's display unit and DPI.
func (u UnitStr) Sub(o UnitStr) UnitStr {
	return u.withInches(u.inches.Sub(o.inches))
}

// Mul scales the measurement by a unitless factor.
func (u UnitStr) Mul(k float64) UnitStr {
	return u.withInches(u.inches.Mul(decimal.NewFromFloat(k)))
}

// Div divides the measurement by a unitless factor.
func (u UnitStr) Div(k float64) UnitStr {
	return u.withInches(u.inches.Div(decimal.NewFromFloat(k)))
}

// Neg returns the negated measurement.
func (u UnitStr) Neg() UnitStr { return u.withInches(u.inches.Neg()) }

// Abs returns the absolute measurement.
func (u UnitStr) Abs() UnitStr { return u.withInches(u.inches.Abs()) }

func (u UnitStr) withInches(in decimal.Decimal) UnitStr {
	in = in.Round(placesIn)
	if in.IsZero() {
		in = decimal.Zero
	}
	return UnitStr{inches: in, unit: u.unit, dpi: u.dpi}
}

// Cmp compares canonical inch magnitudes: -1 if u < o, 0 if equal, +1 if u > o.
// Comparison normalizes to the internal grid, so "1in" equals "25.4mm".
func (u UnitStr) Cmp(o UnitStr) int {
	return u.inches.Cmp(o.inches)
}

// Equal reports whether both measurements denote the same physical length.
func (u UnitStr) Equal(o UnitStr) bool { return u.Cmp(o) == 0 }

// IsZero reports whether the measurement is exactly zero length.
func (u UnitStr) IsZero() bool { return u.inches.IsZero() }

// Round snaps the value to the print increment of its display unit
// (0.01in, 0.1mm, 1pt, ...), returning a new UnitStr.
func (u UnitStr) Round() UnitStr {
	inc, ok := roundingIncrement[u.unit]
	if !ok {
		inc = roundingIncrement[In]
	}
	var val decimal.Decimal
	if u.unit == Px {
		val = u.inches.Mul(decimal.NewFromInt(int64(u.DPI())))
	} else {
		val = u.inches.Mul(unitsPerInch[u.unit])
	}
	snapped := val.Div(inc).Round(0).Mul(inc)
	return fromDecimal(snapped, u.unit, u.DPI())
}

// String formats the value in its display unit, e.g. "2.5 in" or "750 px".
func (u UnitStr) String() string {
	return strconv.FormatFloat(u.Value(), 'g', -1, 64) + " " + u.unit.String()
}

// unitStrJSON is the persisted representation: the magnitude expressed in
// the display unit, the unit tag, and (for px) the working DPI.
type unitStrJSON struct {
	Value json.Number `json:"value"`
	Unit  string      `json:"unit"`
	DPI   int         `json:"dpi,omitempty"`
}

// MarshalJSON encodes the value as {"value": n, "unit": "in"}. The magnitude
// uses the exact decimal string so that load(save(x)) == x.
func (u UnitStr) MarshalJSON() ([]byte, error) {
	var out decimal.Decimal
	if u.unit == Px {
		out = u.inches.Mul(decimal.NewFromInt(int64(u.DPI())))
	} else {
		out = u.inches.Mul(unitsPerInch[u.unit])
	}
	blob := unitStrJSON{Value: json.Number(out.String()), Unit: u.unit.String()}
	if u.unit == Px {
		blob.DPI = u.DPI()
	}
	return json.Marshal(blob)
}

// UnmarshalJSON decodes the {"value", "unit"} form produced by MarshalJSON.
func (u *UnitStr) UnmarshalJSON(data []byte) error {
	var blob unitStrJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "invalid unit quantity")
	}
	unit, err := ParseUnit(blob.Unit)
	if err != nil {
		return err
	}
	val, err := decimal.NewFromString(blob.Value.String())
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "invalid magnitude %q", blob.Value)
	}
	dpi := blob.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	*u = fromDecimal(val, unit, dpi)
	return nil
}

// PixelsPerUnit returns the number of pixels one unit spans at the given DPI.
func PixelsPerUnit(unit Unit, dpi int) float64 {
	return FromValue(1, unit, dpi).Px(dpi)
}
