package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smallbiznis/telcostore/internal/advisor"
	"go.uber.org/fx"
)

type request struct {
	customer string
	usage    advisor.Usage
	family   advisor.DeviceFamily
}

func main() {
	usage := flag.String("usage", "medium", "Data usage tier: low, medium or high")
	device := flag.String("device", "iphone", "Device family: iphone, android or other")
	customer := flag.String("customer", "", "Customer name shown on the quote")
	flag.Parse()

	tier, err := advisor.ParseUsage(*usage)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	family, err := advisor.ParseDeviceFamily(*device)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(request{customer: *customer, usage: tier, family: family}),
		advisor.Module,
		fx.Invoke(printQuote),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printQuote(req request, a *advisor.Advisor) error {
	rec, err := a.Recommend(req.usage, req.family)
	if err != nil {
		return err
	}

	fmt.Println("--- Recommendation ---")
	fmt.Printf("Plan: %s - $%s/month\n", rec.Plan.Name, rec.Plan.MonthlyPrice.StringFixed(2))
	if rec.Device != nil {
		fmt.Printf("Device: %s - $%s\n", rec.Device.Name, rec.Device.UnitPrice.StringFixed(2))
	}
	for _, acc := range rec.Accessories {
		fmt.Printf("Accessory: %s - $%s\n", acc.Name, acc.UnitPrice.StringFixed(2))
	}

	fmt.Println()
	fmt.Println("--- Quote ---")
	if req.customer != "" {
		fmt.Printf("Customer: %s\n", req.customer)
	}
	fmt.Printf("Total device + accessories: $%s\n", rec.OneTimeTotal.StringFixed(2))
	fmt.Printf("Monthly plan: $%s\n", rec.MonthlyTotal.StringFixed(2))
	return nil
}
