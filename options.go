package ttcsv

import (
	"github.com/tsawler/ttcsv/assemble"
	"github.com/tsawler/ttcsv/tables"
)

// convertOptions holds the configuration for a conversion.
type convertOptions struct {
	variant   string // empty until Variant is called
	config    assemble.Config
	detectors tables.Chain // nil means tables.DefaultChain
}

// defaultOptions selects every page, drops nothing and leaves columns
// unnamed.
func defaultOptions() convertOptions {
	return convertOptions{
		config: assemble.Config{
			Pages: assemble.AllPages(),
		},
	}
}

// clone creates a deep copy of convertOptions.
func (o convertOptions) clone() convertOptions {
	newOpts := convertOptions{
		variant: o.variant,
		config:  o.config,
	}

	if o.config.Columns != nil {
		newOpts.config.Columns = make([]string, len(o.config.Columns))
		copy(newOpts.config.Columns, o.config.Columns)
	}
	if o.detectors != nil {
		newOpts.detectors = make(tables.Chain, len(o.detectors))
		copy(newOpts.detectors, o.detectors)
	}

	return newOpts
}
