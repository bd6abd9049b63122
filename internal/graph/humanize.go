package graph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	byteUnits = []string{"Byte", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB", "ZiB", "YiB", "BiB", "GEB"}
	bitUnits  = []string{"bit", "Kib", "Mib", "Gib", "Tib", "Pib", "Eib", "Zib", "Yib", "Bib", "Geb"}
)

// HumanizeOpts adjusts Humanize output.
type HumanizeOpts struct {
	// Bit renders value (given in bytes) as bits.
	Bit bool
	// PerSecond appends "/s" for bytes or "ps" for bits.
	PerSecond bool
	// Start is the unit index value is already expressed in (1 = KiB).
	Start int
	// Short rounds to an integer and uses a one-letter unit without a space.
	Short bool
}

// Humanize formats a byte count with binary prefixes, keeping at most three
// significant digits.
func Humanize(value uint64, o HumanizeOpts) string {
	units := byteUnits
	mult := uint64(1)
	if o.Bit {
		units = bitUnits
		mult = 8
	}
	selector := o.Start
	if selector < 0 {
		selector = 0
	}

	for value > math.MaxUint64/(100*mult) {
		value >>= 10
		selector++
	}
	v := value * 100 * mult

	for len(strconv.FormatUint(v, 10)) > 5 && v >= 102400 {
		v >>= 10
		selector++
	}

	s := strconv.FormatUint(v, 10)
	var out string
	switch {
	case len(s) == 4 && selector > 0:
		out = s[:2] + "." + s[2:3]
	case len(s) == 3 && selector > 0:
		out = s[:1] + "." + s[1:]
	case len(s) >= 2:
		out = s[:len(s)-2]
	default:
		out = s
	}

	if o.Short {
		if strings.Contains(out, ".") {
			f, _ := strconv.ParseFloat(out, 64)
			out = strconv.Itoa(int(math.RoundToEven(f)))
		}
		if len(out) > 3 {
			out = strconv.Itoa(int(out[0]-'0') + 1)
			selector++
		}
	}

	if selector >= len(units) {
		selector = len(units) - 1
	}
	if o.Short {
		out += units[selector][:1]
	} else {
		out += " " + units[selector]
	}
	if o.PerSecond {
		if o.Bit {
			out += "ps"
		} else {
			out += "/s"
		}
	}
	return out
}

// HumanizeFloat rounds value and formats it like Humanize. Negative values
// format as zero.
func HumanizeFloat(value float64, o HumanizeOpts) string {
	if value < 0 || math.IsNaN(value) {
		value = 0
	}
	if value >= math.MaxUint64 {
		return Humanize(math.MaxUint64, o)
	}
	return Humanize(uint64(math.Round(value)), o)
}

// UnitsToBytes parses a size such as "10M", "1.5 GiB", "100kbit" or
// "800 Mib" into bytes. Suffixes "iB", "byte" and "B" mean bytes; "ib",
// "bit" and "ps" mean bits. A trailing "/s" is ignored.
func UnitsToBytes(value string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	s = strings.TrimSuffix(s, "/s")

	bit := false
	if strings.HasSuffix(s, "ps") {
		bit = true
		s = strings.TrimSuffix(s, "ps")
	}
	switch {
	case strings.HasSuffix(s, "ib"):
		bit = true
		s = strings.TrimSuffix(s, "ib")
	case strings.HasSuffix(s, "iB"):
		s = strings.TrimSuffix(s, "iB")
	default:
		s = strings.ToLower(s)
		s = strings.TrimSuffix(s, "s")
		switch {
		case strings.HasSuffix(s, "bit"):
			bit = true
			s = strings.TrimSuffix(s, "bit")
		case strings.HasSuffix(s, "byte"):
			s = strings.TrimSuffix(s, "byte")
		case strings.HasSuffix(s, "b"):
			s = strings.TrimSuffix(s, "b")
		}
	}

	mult := 0
	if s != "" {
		switch strings.ToLower(s[len(s)-1:]) {
		case "k":
			mult = 1
		case "m":
			mult = 2
		case "g":
			mult = 3
		case "t":
			mult = 4
		case "p":
			mult = 5
		}
		if mult > 0 {
			s = s[:len(s)-1]
		}
	}
	if s == "" {
		return 0, fmt.Errorf("no number in size %q", value)
	}

	var n int64
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid size %q", value)
		}
		if mult > 0 {
			n = int64(math.RoundToEven(f * 1024))
			mult--
		} else {
			n = int64(f)
		}
	} else {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid size %q", value)
		}
		n = i
	}

	n <<= uint(10 * mult)
	if bit {
		n /= 8
	}
	return n, nil
}
