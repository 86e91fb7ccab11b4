package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newToggleCmd() *cobra.Command {
	var attribute, labelKey string

	cmd := &cobra.Command{
		Use:   "toggle <resource> <id>",
		Short: "Flip a boolean attribute on one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Toggle(context.Background(), args[0], args[1], attribute, labelKey)
			if err != nil {
				return fmt.Errorf("toggle: %w", err)
			}
			if flagFmt == "table" {
				formatTable([]string{"RESOURCE", "ID", "ATTRIBUTE", "VALUE", "LABEL"},
					[][]string{{args[0], args[1], attribute, onOff(res.Value), res.Label}})
				return nil
			}
			output(res, strconv.FormatBool(res.Value))
			return nil
		},
	}
	cmd.Flags().StringVarP(&attribute, "attribute", "a", "", "Attribute to flip")
	cmd.Flags().StringVar(&labelKey, "label-key", "", "Attribute whose value labels the result")

	return cmd
}

func newFieldCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "field <resource> <id> <attribute>",
		Short: "Show how a toggle field renders for one record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := apiClient.Field(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("field: %w", err)
			}
			if flagFmt == "table" {
				var flags []string
				if d.Readonly {
					flags = append(flags, "readonly")
				}
				if d.Hidden {
					flags = append(flags, "hidden")
				}
				formatTable([]string{"NAME", "VALUE", "FLAGS", "ENDPOINT"},
					[][]string{{d.Name, onOff(d.Value), strings.Join(flags, ","), d.ToggleEndpoint}})
				return nil
			}
			output(d, strconv.FormatBool(d.Value))
			return nil
		},
	}
}
