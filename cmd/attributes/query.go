package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultLimit = 100

type queryFlags struct {
	configPath string
	domain     string
	types      []string
	sort       string
	start      int
	limit      int
	where      attribute.Conditions
	include    []string
}

type searchOutput struct {
	Total attribute.TotalCountUint `json:"total"`
	Items attribute.Items          `json:"items"`
}

func parseFlags(args []string, output io.Writer) (queryFlags, error) {
	var (
		flags   queryFlags
		types   string
		where   string
		include string
	)

	fs := flag.NewFlagSet("attributes", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.configPath, "config", "", "Path to the configuration file (optional)")
	fs.StringVar(&flags.domain, "domain", "product", "Domain the attributes belong to")
	fs.StringVar(&types, "type", "", "Comma separated attribute types, e.g. color,size")
	fs.StringVar(&flags.sort, "sort", "position",
		"Sort key, prefix with - for descending order; one of "+strings.Join(attribute.SearchKeys(), ", "))
	fs.IntVar(&flags.start, "start", 0, "Offset of the first attribute")
	fs.IntVar(&flags.limit, "limit", defaultLimit, "Maximum number of attributes")
	fs.StringVar(&where, "where", "", `Condition tree as JSON, e.g. '{"=~": {"attribute.label": "Re"}}'`)
	fs.StringVar(&include, "include", strings.Join(attribute.DefaultDomains, ","), "Comma separated related domains")

	if err := fs.Parse(args); err != nil {
		return queryFlags{}, err
	}

	if fs.NArg() > 0 {
		return queryFlags{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	flags.types = splitList(types)
	flags.include = splitList(include)

	if where != "" {
		decoder := json.NewDecoder(strings.NewReader(where))
		decoder.UseNumber()

		if err := decoder.Decode(&flags.where); err != nil {
			return queryFlags{}, fmt.Errorf("%w: -where is no JSON object: %w", attribute.ErrInvalidQuery, err)
		}
	}

	return flags, nil
}

// execute applies the flags to the controller, runs the search and writes the result as JSON.
func execute(ctx context.Context, controller attribute.Controller, flags queryFlags, output io.Writer) error {
	controller = controller.
		Domain(flags.domain).
		Sort(flags.sort).
		Slice(flags.start, flags.limit)

	if len(flags.types) > 0 {
		controller = controller.Type(flags.types...)
	}

	if flags.where != nil {
		controller = controller.Parse(flags.where)
	}

	items, total, err := controller.Search(ctx, flags.include...)
	if err != nil {
		return err
	}

	if items == nil {
		items = attribute.Items{}
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")

	return encoder.Encode(searchOutput{Total: total, Items: items})
}

func splitList(value string) []string {
	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}

	return list
}
