package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/domain/product"
)

func (c *cli) productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List, show, create, edit and delete products",
	}
	cmd.AddCommand(
		c.productsListCmd(),
		c.productsGetCmd(),
		c.productsCreateCmd(),
		c.productsEditCmd(),
		c.productsDeleteCmd(),
	)
	return cmd
}

func (c *cli) productsListCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			load := c.catalog.Products
			if refresh {
				load = c.catalog.RefreshProducts
			}
			ps, err := load(cmd.Context())
			if err != nil {
				return err
			}
			c.printProducts(ps)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func (c *cli) productsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := c.catalog.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.printProduct(p)
			return nil
		},
	}
}

func (c *cli) productsCreateCmd() *cobra.Command {
	var (
		req        product.CreateRequest
		price      string
		imageFiles []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Example: `  catalog-admin products create --title Hat --price 15 --description "A hat" \
    --category 1 --image https://i.imgur.com/QkIa5tT.jpeg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if price != "" {
				n, ok := product.ClampPrice(price)
				if !ok {
					return errors.Errorf("price %q is not a number", price)
				}
				req.Price = n
			}

			files, err := describeFiles(imageFiles)
			if err != nil {
				return err
			}
			images, rejected := product.AttachImages(req.Images, files, func(product.ImageFile) string {
				return product.PlaceholderImageURL()
			})
			for _, r := range rejected {
				_, _ = c.err.Write([]byte("Skipped " + r.Error() + "\n"))
			}
			req.Images = images

			var notes catalog.Notifications
			p, err := c.catalog.CreateProduct(cmd.Context(), req, &notes)
			c.printNotifications(&notes)
			if err != nil {
				return err
			}
			c.printProduct(p)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&req.Title, "title", "", "product title")
	flags.StringVar(&price, "price", "", "price, clamped to 1..1000")
	flags.StringVar(&req.Description, "description", "", "product description")
	flags.IntVar(&req.CategoryID, "category", 0, "category id")
	flags.StringArrayVar(&req.Images, "image", nil, "image URL (repeatable)")
	flags.StringArrayVar(&imageFiles, "image-file", nil, "local PNG or JPG file to attach (repeatable)")
	return cmd
}

func (c *cli) productsEditCmd() *cobra.Command {
	var (
		title string
		price string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or price of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var edit product.Edit
			if cmd.Flags().Changed("title") {
				edit.Title = &title
			}
			if cmd.Flags().Changed("price") {
				n, ok := product.ClampPrice(price)
				if !ok {
					return errors.Errorf("price %q is not a number", price)
				}
				edit.Price = &n
			}

			var notes catalog.Notifications
			p, err := c.catalog.UpdateProduct(cmd.Context(), id, edit, &notes)
			c.printNotifications(&notes)
			if err != nil {
				return err
			}
			c.printProduct(p)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&price, "price", "", "new price, clamped to 1..1000")
	return cmd
}

func (c *cli) productsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var notes catalog.Notifications
			err = c.catalog.DeleteProduct(cmd.Context(), id, &notes)
			c.printNotifications(&notes)
			return err
		},
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect categories",
	}
	var refresh bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			load := c.catalog.Categories
			if refresh {
				load = c.catalog.RefreshCategories
			}
			cs, err := load(cmd.Context())
			if err != nil {
				return err
			}
			c.printCategories(cs)
			return nil
		},
	}
	list.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	cmd.AddCommand(list)
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid product id %q", s)
	}
	return id, nil
}

// describeFiles sniffs the content type and size of local image files.
func describeFiles(paths []string) ([]product.ImageFile, error) {
	out := make([]product.ImageFile, 0, len(paths))
	for _, path := range paths {
		f, err := describeFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func describeFile(path string) (product.ImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return product.ImageFile{}, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return product.ImageFile{}, errors.Wrapf(err, "stat %s", path)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return product.ImageFile{}, errors.Wrapf(err, "read %s", path)
	}
	return product.ImageFile{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(head[:n]),
		Size:        info.Size(),
	}, nil
}
