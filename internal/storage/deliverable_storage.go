package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// RefScheme префикс ссылки на результат работы, хранящийся на сервере.
const RefScheme = "deliverable://"

// sniffLen количество байт, по которым определяется тип файла.
const sniffLen = 262

var (
	// ErrUnsupportedType тип файла не распознан или не разрешён.
	ErrUnsupportedType = errors.New("storage: неподдерживаемый тип файла")
	// ErrTooLarge файл превышает лимит.
	ErrTooLarge = errors.New("storage: размер файла превышает лимит")
)

// Deliverable сохранённый результат работы.
type Deliverable struct {
	Ref         string
	ContentType string
	Size        int64
}

// DeliverableStorage файловое хранилище результатов работы исполнителей.
// Ссылка на файл передаётся в submit-work как submission ref.
type DeliverableStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewDeliverableStorage создаёт файловое хранилище.
func NewDeliverableStorage(rootPath string, maxUploadMB int64) (*DeliverableStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &DeliverableStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save определяет тип файла по сигнатуре и сохраняет его в каталог владельца.
// Разрешены изображения, документы и архивы.
func (s *DeliverableStorage) Save(ctx context.Context, owner uuid.UUID, r io.Reader) (*Deliverable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("storage: ошибка чтения файла: %w", err)
	}

	if !filetype.IsImage(head) && !filetype.IsDocument(head) && !filetype.IsArchive(head) {
		return nil, ErrUnsupportedType
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, ErrUnsupportedType
	}

	ownerDir := filepath.Join(s.rootPath, owner.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог владельца: %w", err)
	}

	fileName := fmt.Sprintf("%d_%s.%s", time.Now().UnixNano(), uuid.NewString()[:8], kind.Extension)
	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, &io.LimitedReader{R: br, N: s.maxUploadBytes + 1})
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, ErrTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &Deliverable{
		Ref:         RefScheme + path.Join(owner.String(), fileName),
		ContentType: kind.MIME.Value,
		Size:        written,
	}, nil
}

// Open открывает сохранённый файл по ссылке.
func (s *DeliverableStorage) Open(ref string) (*os.File, error) {
	rel, ok := cutScheme(ref)
	if !ok {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.rootPath, filepath.FromSlash(rel)))
}

// cutScheme отрезает префикс ссылки и отбрасывает выход за пределы каталога.
func cutScheme(ref string) (string, bool) {
	if len(ref) <= len(RefScheme) || ref[:len(RefScheme)] != RefScheme {
		return "", false
	}
	rel := path.Clean("/" + ref[len(RefScheme):])[1:]
	if rel == "" {
		return "", false
	}
	return rel, true
}
