package natsort

import "sort"

// Compare reports the natural ordering of a and b: a negative value when a
// orders first, zero when the strings are identical, positive otherwise.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			va, wa, ni := scanRun(a, i)
			vb, wb, nj := scanRun(b, j)
			switch {
			case va != vb:
				if va < vb {
					return -1
				}
				return 1
			case wa != wb:
				// Same value, different widths: fewer leading zeros first.
				if wa < wb {
					return -1
				}
				return 1
			}
			i, j = ni, nj
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case i < len(a):
		return 1
	case j < len(b):
		return -1
	}
	return 0
}

// Less reports whether a orders before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings sorts the slice in place in natural order.
func Strings(values []string) {
	sort.Slice(values, func(i, j int) bool {
		return Less(values[i], values[j])
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// scanRun consumes the digit run starting at position start and returns its
// numeric value, its width, and the position after the run. Runs wide enough
// to overflow uint64 saturate and order by width.
func scanRun(s string, start int) (value uint64, width int, next int) {
	next = start
	for next < len(s) && isDigit(s[next]) {
		d := uint64(s[next] - '0')
		if value > (^uint64(0)-d)/10 {
			value = ^uint64(0)
		} else {
			value = value*10 + d
		}
		next++
	}
	return value, next - start, next
}
