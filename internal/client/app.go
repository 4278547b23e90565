package client

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// API is what the menu needs from Client
type API interface {
	ListFaces(ctx context.Context) ([]domain.FaceRecord, error)
	Register(ctx context.Context, filename string, image []byte) (string, error)
	Authenticate(ctx context.Context, filename string, image []byte) (*domain.FaceRecord, error)
	Attributes(ctx context.Context, entryID string) (*domain.AttributesResponse, error)
}

// App is the numbered command menu
type App struct {
	api API
	in  *bufio.Scanner
	out io.Writer
}

func NewApp(api API, in io.Reader, out io.Writer) *App {
	return &App{api: api, in: bufio.NewScanner(in), out: out}
}

// Run loops over commands until 0 or end of input
func (a *App) Run(ctx context.Context) error {
	a.printf("** Welcome to facegate **\n")

	for {
		cmd, ok := a.prompt()
		if !ok || cmd == 0 {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch cmd {
		case 1:
			a.list(ctx)
		case 2:
			a.register(ctx)
		case 3:
			a.authenticate(ctx)
		case 4:
			a.attributes(ctx)
		default:
			a.printf("** Unknown command, try again...\n")
		}
	}

	a.printf("\n** done **\n")
	return nil
}

func (a *App) prompt() (int, bool) {
	a.printf("\n>> Enter a command:\n")
	a.printf("   0 => end\n")
	a.printf("   1 => see who's registered\n")
	a.printf("   2 => register face\n")
	a.printf("   3 => authenticate face\n")
	a.printf("   4 => see facial attributes\n")

	line, ok := a.readLine()
	if !ok {
		return 0, false
	}
	cmd, err := strconv.Atoi(line)
	if err != nil || cmd < 0 {
		return -1, true
	}
	return cmd, true
}

func (a *App) list(ctx context.Context) {
	faces, err := a.api.ListFaces(ctx)
	if err != nil {
		a.reportError(err)
		return
	}
	for _, f := range faces {
		a.printf("%s\n", f.EntryID)
		a.printf("Last Name, First Name: %s, %s\n", f.LastName, f.FirstName)
		a.printf("Recognition Id: %s\n", f.RecognitionID)
		a.printf("Storage Key: %s\n", f.StorageKey)
	}
}

func (a *App) register(ctx context.Context) {
	a.printf("Enter facial image to register (must be jpeg or png file format)>\n")
	path, image, ok := a.readImage()
	if !ok {
		return
	}

	a.printf("Enter registration's first name>\n")
	first, _ := a.readLine()
	a.printf("Enter registration's last name>\n")
	last, _ := a.readLine()

	filename := first + "_" + last + "." + domain.NormalizeExtension(path)
	msg, err := a.api.Register(ctx, filename, image)
	if err != nil {
		a.reportError(err)
		return
	}
	a.printf("%s\n", msg)
}

func (a *App) authenticate(ctx context.Context) {
	a.printf("Enter facial image to authenticate (must be jpeg or png file format)>\n")
	path, image, ok := a.readImage()
	if !ok {
		return
	}

	face, err := a.api.Authenticate(ctx, filepath.Base(path), image)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == 403 {
			a.printf("%s\n", statusErr.Message)
			return
		}
		a.reportError(err)
		return
	}
	a.printf("Hello, %s!\n", face.FullName())
}

func (a *App) attributes(ctx context.Context) {
	a.printf("Enter Entry Id>\n")
	entryID, _ := a.readLine()

	attrs, err := a.api.Attributes(ctx, entryID)
	if err != nil {
		a.reportError(err)
		return
	}

	a.printf("\nAttributes For %s\n", attrs.Name)
	a.printf("\n~Gender~\n  Prediction: %s\n", attrs.Gender.Value)
	a.printf("  Confidence: %.2f\n", attrs.Gender.Confidence)
	a.printf("\n~Age Range~\n  Low: %d\n", attrs.AgeRange.Low)
	a.printf("  High: %d\n", attrs.AgeRange.High)

	a.printf("\n~Emotions~\n")
	labels := []string{"Highest Emotion", "Second Highest Emotion"}
	for i, e := range attrs.Emotions {
		if i == len(labels) {
			break
		}
		a.printf("  %s: %s\n", labels[i], e.Type)
		a.printf("  Confidence: %.2f\n", e.Confidence)
	}
}

// readImage reads a path from input, checks the extension and that the file
// exists, and returns its bytes
func (a *App) readImage() (string, []byte, bool) {
	path, ok := a.readLine()
	if !ok {
		return "", nil, false
	}

	if !domain.IsAllowedExtension(path) {
		a.printf("File must be jpeg or png format\n")
		return "", nil, false
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		a.printf("Image file '%s' does not exist...\n", path)
		return "", nil, false
	}

	image, err := os.ReadFile(path)
	if err != nil {
		a.printf("Image file '%s' could not be read: %v\n", path, err)
		return "", nil, false
	}
	return path, image, true
}

func (a *App) reportError(err error) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		a.printf("Failed with status code: %d\n", statusErr.StatusCode)
		a.printf("Error message: %s\n", statusErr.Message)
		return
	}
	a.printf("**ERROR: %v\n", err)
}

func (a *App) readLine() (string, bool) {
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func encodeImage(image []byte) string {
	return base64.StdEncoding.EncodeToString(image)
}
