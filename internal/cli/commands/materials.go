package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Herculano1234/MuseuCom/internal/cli/client"
	"github.com/Herculano1234/MuseuCom/internal/cli/manifest"
)

// NewMaterialsCmd creates the materials command group
func NewMaterialsCmd(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "materials",
		Aliases: []string{"material", "m"},
		Short:   "Browse and manage the catalog",
	}

	cmd.AddCommand(
		newMaterialsListCmd(g),
		newMaterialsShowCmd(g),
		newMaterialsCreateCmd(g),
		newMaterialsUpdateCmd(g),
		newMaterialsDeleteCmd(g),
	)

	return cmd
}

func newMaterialsListCmd(g *GlobalOptions) *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List materials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialsList(g, opts, commandOptions(cmd)...)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", client.DefaultPage, "Page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", client.DefaultLimit, "Materials per page")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Filter by name, serial number or manufacturer")

	return cmd
}

func runMaterialsList(g *GlobalOptions, listOpts client.ListOptions, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	materials, err := r.api.ListMaterials(r.ctx, listOpts)
	if err != nil {
		return explain(err)
	}

	if len(materials) == 0 {
		fmt.Fprintln(r.out, "No materials found.")
		fmt.Fprintln(r.out, "\nAdd one with: museucom materials create -f material.yaml")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSERIAL\tMANUFACTURER\tMODEL")
	fmt.Fprintln(w, "──\t────\t──────\t────────────\t─────")

	for _, m := range materials {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.ID,
			m.Name,
			orDash(m.SerialNumber),
			orDash(m.Manufacturer),
			orDash(m.Model),
		)
	}

	return w.Flush()
}

func newMaterialsShowCmd(g *GlobalOptions) *cobra.Command {
	var bySerial bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialsShow(g, args[0], bySerial, commandOptions(cmd)...)
		},
	}

	cmd.Flags().BoolVar(&bySerial, "serial", false, "Look the material up by serial number")

	return cmd
}

func runMaterialsShow(g *GlobalOptions, key string, bySerial bool, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	var material *client.Material
	if bySerial {
		material, err = r.api.GetMaterialBySerial(r.ctx, key)
	} else {
		material, err = r.api.GetMaterial(r.ctx, key)
	}
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("material '%s' not found", key)
		}
		return explain(err)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", material.ID)
	fmt.Fprintf(w, "Name:\t%s\n", material.Name)
	fmt.Fprintf(w, "Serial:\t%s\n", orDash(material.SerialNumber))
	fmt.Fprintf(w, "Model:\t%s\n", orDash(material.Model))
	fmt.Fprintf(w, "Manufacturer:\t%s\n", orDash(material.Manufacturer))
	fmt.Fprintf(w, "Manufactured:\t%s\n", orDash(material.ManufactureDate))
	fmt.Fprintf(w, "Profile:\t%s\n", orDash(material.ManufacturerProfile))
	fmt.Fprintf(w, "Notes:\t%s\n", orDash(material.AdditionalInfo))
	fmt.Fprintf(w, "Photo:\t%s\n", attached(material.Photo))
	fmt.Fprintf(w, "PDF:\t%s\n", attached(material.PDF))
	fmt.Fprintf(w, "Created:\t%s\n", orDash(material.CreatedAt))
	return w.Flush()
}

type createOptions struct {
	manifestPath string
	input        client.MaterialInput
	imagePath    string
	pdfPath      string
}

func newMaterialsCreateCmd(g *GlobalOptions) *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a material to the catalog",
		Long: `Add a material to the catalog, either from flags or from a manifest.

Example manifest:
  nome: Telefone de manivela
  fabricante: Ericsson
  ano_fabrico: 1920
  numero_serie: TM-20
  imagem: fotos/telefone.png
  pdf: fichas/telefone.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterialsCreate(g, opts, commandOptions(cmd)...)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "file", "f", "", "YAML or JSON manifest")
	cmd.Flags().StringVar(&opts.input.Name, "name", "", "Material name")
	cmd.Flags().StringVar(&opts.input.Model, "model", "", "Model")
	cmd.Flags().StringVar(&opts.input.Manufacturer, "manufacturer", "", "Manufacturer")
	cmd.Flags().StringVar(&opts.input.ManufactureYear, "year", "", "Year of manufacture")
	cmd.Flags().StringVar(&opts.input.SerialNumber, "serial", "", "Serial number")
	cmd.Flags().StringVar(&opts.input.ManufacturerProfile, "profile", "", "Manufacturer profile")
	cmd.Flags().StringVar(&opts.input.AdditionalInfo, "info", "", "Additional information")
	cmd.Flags().StringVar(&opts.imagePath, "image", "", "Photo to upload")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "PDF datasheet to upload")
	cmd.MarkFlagsMutuallyExclusive("file", "name")

	return cmd
}

func (o *createOptions) build() (client.MaterialInput, []client.Attachment, error) {
	if o.manifestPath != "" {
		m, err := manifest.Load(o.manifestPath)
		if err != nil {
			return client.MaterialInput{}, nil, err
		}
		attachments, err := m.Attachments()
		if err != nil {
			return client.MaterialInput{}, nil, err
		}
		return m.Input(), attachments, nil
	}

	if strings.TrimSpace(o.input.Name) == "" {
		return client.MaterialInput{}, nil, fmt.Errorf("--name or --file is required")
	}

	var attachments []client.Attachment
	for _, f := range []struct{ field, path string }{
		{client.FieldImage, o.imagePath},
		{client.FieldPDF, o.pdfPath},
	} {
		if f.path == "" {
			continue
		}
		a, err := manifest.ReadAttachment(f.field, f.path)
		if err != nil {
			return client.MaterialInput{}, nil, err
		}
		attachments = append(attachments, a)
	}
	return o.input, attachments, nil
}

func runMaterialsCreate(g *GlobalOptions, createOpts *createOptions, opts ...Option) error {
	input, attachments, err := createOpts.build()
	if err != nil {
		return err
	}

	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.auth.RequireSession(r.ctx); err != nil {
		return explain(err)
	}

	material, err := r.api.CreateMaterial(r.ctx, input, attachments...)
	if err != nil {
		return explain(err)
	}

	if material.ID == "" {
		fmt.Fprintf(r.out, "✓ Material '%s' created\n", input.Name)
	} else {
		fmt.Fprintf(r.out, "✓ Material '%s' created (id %s)\n", input.Name, material.ID)
	}
	return nil
}

func newMaterialsUpdateCmd(g *GlobalOptions) *cobra.Command {
	var fields struct {
		name, serial, model, manufacturer, date, info, profile string
		imagePath, pdfPath                                    string
	}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a material",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update client.MaterialUpdate
			set := func(flag string, value string, dst **string) {
				if cmd.Flags().Changed(flag) {
					v := value
					*dst = &v
				}
			}
			set("name", fields.name, &update.Name)
			set("serial", fields.serial, &update.SerialNumber)
			set("model", fields.model, &update.Model)
			set("manufacturer", fields.manufacturer, &update.Manufacturer)
			set("date", fields.date, &update.ManufactureDate)
			set("info", fields.info, &update.AdditionalInfo)
			set("profile", fields.profile, &update.ManufacturerProfile)

			if err := attachDataURL(client.FieldImage, fields.imagePath, &update.Photo); err != nil {
				return err
			}
			if err := attachDataURL(client.FieldPDF, fields.pdfPath, &update.PDF); err != nil {
				return err
			}

			return runMaterialsUpdate(g, args[0], update, commandOptions(cmd)...)
		},
	}

	cmd.Flags().StringVar(&fields.name, "name", "", "Material name")
	cmd.Flags().StringVar(&fields.serial, "serial", "", "Serial number")
	cmd.Flags().StringVar(&fields.model, "model", "", "Model")
	cmd.Flags().StringVar(&fields.manufacturer, "manufacturer", "", "Manufacturer")
	cmd.Flags().StringVar(&fields.date, "date", "", "Date of manufacture")
	cmd.Flags().StringVar(&fields.info, "info", "", "Additional information")
	cmd.Flags().StringVar(&fields.profile, "profile", "", "Manufacturer profile")
	cmd.Flags().StringVar(&fields.imagePath, "image", "", "Replace the photo")
	cmd.Flags().StringVar(&fields.pdfPath, "pdf", "", "Replace the PDF datasheet")

	return cmd
}

// attachDataURL reads path (if set) into a data URL.
func attachDataURL(field, path string, dst **string) error {
	if path == "" {
		return nil
	}
	a, err := manifest.ReadAttachment(field, path)
	if err != nil {
		return err
	}
	v := client.DataURL(a.ContentType, a.Content)
	*dst = &v
	return nil
}

func runMaterialsUpdate(g *GlobalOptions, id string, update client.MaterialUpdate, opts ...Option) error {
	if update.Empty() {
		return fmt.Errorf("nothing to update, pass at least one field flag")
	}

	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.auth.RequireSession(r.ctx); err != nil {
		return explain(err)
	}

	if _, err := r.api.UpdateMaterial(r.ctx, id, update); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("material '%s' not found", id)
		}
		return explain(err)
	}

	fmt.Fprintf(r.out, "✓ Material %s updated\n", id)
	return nil
}

func newMaterialsDeleteCmd(g *GlobalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a material (administrador only)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				confirmed, err := confirm(fmt.Sprintf("Delete material %s", args[0]))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			return runMaterialsDelete(g, args[0], commandOptions(cmd)...)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runMaterialsDelete(g *GlobalOptions, id string, opts ...Option) error {
	r, err := newApp(g, opts...)
	if err != nil {
		return err
	}
	defer r.close()

	if err := r.auth.RequireSession(r.ctx); err != nil {
		return explain(err)
	}

	if err := r.api.DeleteMaterial(r.ctx, id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("material '%s' not found", id)
		}
		return explain(err)
	}

	fmt.Fprintf(r.out, "✓ Material %s deleted\n", id)
	return nil
}

// confirm asks a yes/no question. Non-interactive sessions must pass --yes.
func confirm(label string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("refusing to delete without confirmation in non-interactive mode (use --yes)")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func attached(dataURL string) string {
	if dataURL == "" {
		return "-"
	}
	if i := strings.IndexByte(dataURL, ';'); strings.HasPrefix(dataURL, "data:") && i > 0 {
		return "attached (" + dataURL[len("data:"):i] + ")"
	}
	return dataURL
}
