// Package natsort provides natural ordering for strings that embed decimal
// numbers, so "vol2" sorts before "vol10" and page files enumerate in the
// order a human expects.
//
// Digit runs compare by numeric value; everything else compares byte-wise.
// Runs with equal numeric value but different widths (leading zeros) fall
// back to width so the ordering stays total and deterministic.
package natsort
