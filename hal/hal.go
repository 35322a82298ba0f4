// Package hal describes the hardware the slicer plans for: matrix engine geometry, clock, bandwidths,
// cache line and scratch memory capacity.
//
// The cost models only read a Description, they never change it. Start from Default and override
// fields with Parse or FromEnv:
//
//	desc, err := hal.Parse("freq_ghz=1.6,hbm_gbps=1000,sram_bytes=24MiB")
package hal

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// EnvVar is the environment variable read by FromEnv.
const EnvVar = "SRAMSLICER_HAL"

// Description of the hardware.
//
// Bandwidths are in GB/s, which conveniently is the same as bytes per nanosecond.
type Description struct {
	// MMEGeometryHeight and MMEGeometryWidth are the output tile computed by one matrix engine activation.
	MMEGeometryHeight, MMEGeometryWidth int

	// MMEMinCommonDim is the minimum number of cycles of an activation, whatever the accumulation size.
	MMEMinCommonDim int

	// FrequencyGHz is the engines clock.
	FrequencyGHz float64

	// HBMBandwidthGBps is the bandwidth available between main memory and the engines.
	HBMBandwidthGBps float64

	// SRAMBandwidthGBps is the bandwidth available to the vector engine when reading scratch memory.
	SRAMBandwidthGBps float64

	// CacheLineSize in bytes.
	CacheLineSize int

	// SRAMCapacityBytes is the size of the scratch memory.
	SRAMCapacityBytes uint64

	// OverheadPerSliceCycles is the fixed cost (sync, descriptors) paid for every slice.
	OverheadPerSliceCycles float64

	// PartialsDType is the dtype partial sums are kept in, when the accumulation is sliced.
	PartialsDType dtypes.DType
}

// Default returns a description of a Gaudi-like accelerator.
func Default() Description {
	return Description{
		MMEGeometryHeight:      256,
		MMEGeometryWidth:       256,
		MMEMinCommonDim:        128,
		FrequencyGHz:           1.6,
		HBMBandwidthGBps:       1000,
		SRAMBandwidthGBps:      4000,
		CacheLineSize:          128,
		SRAMCapacityBytes:      24 * 1024 * 1024,
		OverheadPerSliceCycles: 1000,
		PartialsDType:          dtypes.Float32,
	}
}

// Validate returns an error if any of the fields can't describe real hardware.
func (d Description) Validate() error {
	if d.MMEGeometryHeight <= 0 || d.MMEGeometryWidth <= 0 {
		return errors.Errorf("invalid matrix engine geometry %dx%d", d.MMEGeometryHeight, d.MMEGeometryWidth)
	}
	if d.MMEMinCommonDim <= 0 {
		return errors.Errorf("invalid matrix engine minimum common dimension %d", d.MMEMinCommonDim)
	}
	if d.FrequencyGHz <= 0 {
		return errors.Errorf("invalid frequency %gGHz", d.FrequencyGHz)
	}
	if d.HBMBandwidthGBps <= 0 || d.SRAMBandwidthGBps <= 0 {
		return errors.Errorf("invalid bandwidths hbm=%gGB/s, sram=%gGB/s", d.HBMBandwidthGBps, d.SRAMBandwidthGBps)
	}
	if d.CacheLineSize <= 0 {
		return errors.Errorf("invalid cache line size %d", d.CacheLineSize)
	}
	if d.SRAMCapacityBytes == 0 {
		return errors.New("scratch memory capacity must be positive")
	}
	if d.OverheadPerSliceCycles < 0 {
		return errors.Errorf("invalid per-slice overhead %g cycles", d.OverheadPerSliceCycles)
	}
	if !d.PartialsDType.IsFloat() {
		return errors.Errorf("partials dtype must be a float, got %s", d.PartialsDType)
	}
	return nil
}

// CyclesToNano converts engine cycles to nanoseconds.
func (d Description) CyclesToNano(cycles float64) float64 {
	return cycles / d.FrequencyGHz
}

// DataMovementNano returns the time to move trafficBytes through main memory.
func (d Description) DataMovementNano(trafficBytes uint64) float64 {
	return float64(trafficBytes) / d.HBMBandwidthGBps
}

type fieldSetter func(d *Description, value string) error

func intSetter(field func(d *Description) *int) fieldSetter {
	return func(d *Description, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(d) = v
		return nil
	}
}

func floatSetter(field func(d *Description) *float64) fieldSetter {
	return func(d *Description, value string) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		*field(d) = v
		return nil
	}
}

var setters = map[string]fieldSetter{
	"mme_height":            intSetter(func(d *Description) *int { return &d.MMEGeometryHeight }),
	"mme_width":             intSetter(func(d *Description) *int { return &d.MMEGeometryWidth }),
	"mme_min_cd":            intSetter(func(d *Description) *int { return &d.MMEMinCommonDim }),
	"cache_line":            intSetter(func(d *Description) *int { return &d.CacheLineSize }),
	"freq_ghz":              floatSetter(func(d *Description) *float64 { return &d.FrequencyGHz }),
	"hbm_gbps":              floatSetter(func(d *Description) *float64 { return &d.HBMBandwidthGBps }),
	"sram_gbps":             floatSetter(func(d *Description) *float64 { return &d.SRAMBandwidthGBps }),
	"slice_overhead_cycles": floatSetter(func(d *Description) *float64 { return &d.OverheadPerSliceCycles }),
	"sram_bytes": func(d *Description, value string) error {
		v, err := humanize.ParseBytes(value)
		if err != nil {
			return err
		}
		d.SRAMCapacityBytes = v
		return nil
	},
	"partials_dtype": func(d *Description, value string) error {
		dtype, found := dtypes.MapOfNames[value]
		if !found {
			return errors.Errorf("unknown dtype %q", value)
		}
		d.PartialsDType = dtype
		return nil
	},
}

// Keys returns the keys accepted by Parse, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for key := range setters {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Parse returns Default overridden by a comma-separated list of key=value pairs.
// The result is validated.
func Parse(config string) (Description, error) {
	return Default().Override(config)
}

// Override returns a copy of d with the comma-separated key=value pairs in config applied.
// The result is validated.
func (d Description) Override(config string) (Description, error) {
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return d, errors.Errorf("hardware description entry %q is not in the key=value format", part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		setter, ok := setters[key]
		if !ok {
			return d, errors.Errorf("unknown hardware description key %q, valid keys are %q", key, Keys())
		}
		if err := setter(&d, strings.TrimSpace(value)); err != nil {
			return d, errors.Wrapf(err, "parsing hardware description key %q", key)
		}
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// FromEnv returns Default overridden by the contents of the SRAMSLICER_HAL environment variable, if set.
func FromEnv() (Description, error) {
	config, found := os.LookupEnv(EnvVar)
	if !found {
		return Default(), nil
	}
	d, err := Parse(config)
	if err != nil {
		return d, errors.WithMessagef(err, "in environment variable %s", EnvVar)
	}
	return d, nil
}
