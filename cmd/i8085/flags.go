package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/ezrec/i8085/translate"
)

var f = translate.From

// defineFlags collects -D NAME=VALUE equates.
type defineFlags map[string]string

func (df defineFlags) String() string {
	var defs []string
	for _, key := range slices.Sorted(maps.Keys(df)) {
		defs = append(defs, key+"="+df[key])
	}
	return strings.Join(defs, ",")
}

func (df defineFlags) Set(text string) (err error) {
	name, value, ok := strings.Cut(text, "=")
	if !ok || len(name) == 0 || len(value) == 0 {
		err = errors.New(f("'%v' is not NAME=VALUE", text))
		return
	}

	df[name] = value

	return
}

// breakFlags collects breakpoint addresses.
type breakFlags map[uint16]bool

func (bf breakFlags) String() string {
	var addrs []string
	for _, address := range slices.Sorted(maps.Keys(bf)) {
		addrs = append(addrs, fmt.Sprintf("%#x", address))
	}
	return strings.Join(addrs, ",")
}

func (bf breakFlags) Set(text string) (err error) {
	address, err := strconv.ParseUint(text, 0, 16)
	if err != nil {
		return
	}

	bf[uint16(address)] = true

	return
}
