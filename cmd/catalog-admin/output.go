package main

import (
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/catalog-admin/internal/apierror"
	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
)

func (c *cli) printProducts(ps []product.Product) {
	if len(ps) == 0 {
		c.printf("No products found.\n")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = tw.Write([]byte("ID\tTITLE\tPRICE\tCATEGORY\n"))
	for _, p := range ps {
		_, _ = tw.Write([]byte(strings.Join([]string{
			strconv.Itoa(p.ID), p.Title, p.Price.String(), p.Category.Name,
		}, "\t") + "\n"))
	}
	_ = tw.Flush()
}

func (c *cli) printProduct(p product.Product) {
	c.printf("ID:          %d\n", p.ID)
	c.printf("Title:       %s\n", p.Title)
	c.printf("Price:       %s\n", p.Price.String())
	c.printf("Category:    %s\n", p.Category.Name)
	c.printf("Description: %s\n", p.Description)
	for _, img := range p.Images {
		c.printf("Image:       %s\n", img)
	}
	if !p.UpdatedAt.IsZero() {
		c.printf("Updated:     %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func (c *cli) printCategories(cs []category.Category) {
	if len(cs) == 0 {
		c.printf("No categories found.\n")
		return
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = tw.Write([]byte("ID\tNAME\tSLUG\n"))
	for _, cat := range cs {
		_, _ = tw.Write([]byte(strconv.Itoa(cat.ID) + "\t" + cat.Name + "\t" + cat.Slug + "\n"))
	}
	_ = tw.Flush()
}

// printNotifications writes mutation outcomes to stderr.
func (c *cli) printNotifications(n *catalog.Notifications) {
	for _, note := range n.All() {
		_, _ = c.err.Write([]byte("[" + string(note.Level) + "] " + note.Message + "\n"))
	}
}

// printError explains err the way the gateway would: validation failures list
// the rejected fields, everything else is classified.
func (c *cli) printError(err error) {
	var invalid *product.ValidationError
	switch {
	case errors.As(err, &invalid):
		_, _ = c.err.Write([]byte("Invalid product:\n"))
		names := make([]string, 0, len(invalid.Fields))
		for name := range invalid.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			_, _ = c.err.Write([]byte("  " + name + ": " + invalid.Fields[name] + "\n"))
		}
	case errors.Is(err, product.ErrEmptyEdit):
		_, _ = c.err.Write([]byte("Nothing to change: pass --title or --price.\n"))
	case c.catalog == nil:
		// Setup failed before the catalog service existed.
		_, _ = c.err.Write([]byte("Error: " + err.Error() + "\n"))
	default:
		cl := apierror.Classify(err)
		_, _ = c.err.Write([]byte(cl.Message + " (" + hint(cl.Action) + ")\n"))
		c.lg.Debug("Command failed", zap.Error(err))
	}
}

func hint(a apierror.Action) string {
	if a == apierror.ActionRetry {
		return "run the command again"
	}
	return "check the request and try something else"
}
