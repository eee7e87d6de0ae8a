package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/puranjayb/AWS-Potato/internal/common"
)

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

func (a *App) credentials(withEmail bool) (username, email, password string, err error) {
	username, err = GetSimpleText(a.reader, "Username:", a.out)
	if err != nil {
		return "", "", "", err
	}
	if withEmail {
		email, err = GetSimpleText(a.reader, "Email:", a.out)
		if err != nil {
			return "", "", "", err
		}
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return "", "", "", err
	}
	defer common.WipeByteArray(pw)
	return username, email, string(pw), nil
}

func (a *App) Signup(ctx context.Context) error {
	username, email, password, err := a.credentials(true)
	if err != nil {
		return err
	}
	res, err := a.api.Signup(ctx, username, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", res.Message, res.Username)
	if res.Project != nil {
		fmt.Fprintf(a.out, "Project: %s\n", res.Project.ProjectID)
	}
	return nil
}

func (a *App) Signin(ctx context.Context) error {
	username, _, password, err := a.credentials(false)
	if err != nil {
		return err
	}
	res, err := a.api.Signin(ctx, username, password)
	if err != nil {
		return err
	}
	a.userName = username
	fmt.Fprintln(a.out, res.Message)
	if res.Project != nil {
		fmt.Fprintf(a.out, "Project: %s\n", res.Project.ProjectID)
	}
	return nil
}

func (a *App) Projects(ctx context.Context) error {
	items, err := a.api.Projects(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT ID\tNAME\tCREATED")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ProjectID, p.Name, p.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("upload <path> [project_id]")
	}
	projectID := ""
	if len(args) > 1 {
		projectID = args[1]
	}
	f, err := a.api.Upload(ctx, args[0], projectID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s (%d bytes) as %s\n", args[0], f.FileSize, f.FileID)
	return nil
}

func (a *App) List(ctx context.Context) error {
	items, err := a.api.ListFiles(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE ID\tNAME\tSIZE\tUPLOAD\tPROCESSING")
	for _, f := range items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.FileID, f.OriginalFilename, f.FileSize, f.UploadStatus, f.ProcessingStatus)
	}
	return w.Flush()
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("download <file_id>")
	}
	path, err := a.api.Download(ctx, args[0], a.config.DownloadDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <file_id>")
	}
	if err := a.api.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}

func (a *App) Process(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("process <file_id>")
	}
	fmt.Fprintln(a.out, "Processing, this can take a while...")
	res, err := a.api.Process(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Processing ID: %s\n", res.ProcessingID)
	if res.PageCount != nil {
		fmt.Fprintf(a.out, "Pages: %d\n", *res.PageCount)
	}
	fmt.Fprintf(a.out, "Summary:\n%s\n", res.Summary)
	return nil
}

func (a *App) Ask(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("ask <processing_id>")
	}
	question, err := GetSimpleText(a.reader, "Question:", a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(question) == "" {
		return usage("question cannot be empty")
	}
	ans, err := a.api.Ask(ctx, args[0], question)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", ans.Answer)
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("history <processing_id>")
	}
	h, err := a.api.History(ctx, args[0])
	if err != nil {
		return err
	}
	for i, c := range h.Conversations {
		fmt.Fprintf(a.out, "[%d] %s\nQ: %s\nA: %s\n\n", i+1, c.Timestamp.Format("2006-01-02 15:04:05"), c.Question, c.Answer)
	}
	fmt.Fprintf(a.out, "%d conversation(s)\n", h.TotalConversations)
	return nil
}
