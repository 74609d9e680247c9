package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfstore/internal/keys"
	"pdfstore/internal/model"
	"pdfstore/internal/repository"
	repoMocks "pdfstore/internal/repository/mocks"
	"pdfstore/internal/storage"
	storeMocks "pdfstore/internal/storage/mocks"
)

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         func() UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository)
		wantErr    error
		wantErrMsg string
		check      func(t *testing.T, meta *model.Metadata)
	}{
		{
			name: "happy path",
			in: func() UploadInput {
				return UploadInput{Body: strings.NewReader("%PDF-1.4"), Size: 8, OriginalName: "invoice.pdf", BuyerName: "Alice"}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "pdfs/") && keys.Valid(strings.TrimPrefix(key, "pdfs/"))
				}), mock.Anything, storage.PutObjectOptions{
					Size:        8,
					ContentType: "application/pdf",
				}).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
					return storage.ObjectInfo{Key: key, Size: 8}
				}, nil)

				mRepo.On("Save", ctx, mock.MatchedBy(func(m *model.Metadata) bool {
					return m.OriginalName == "invoice.pdf" && m.BuyerName == "Alice" && m.FileSize == 8
				})).Return(nil)
			},
			check: func(t *testing.T, meta *model.Metadata) {
				assert.True(t, keys.Valid(meta.ID))
				assert.Equal(t, model.PDFContentType, meta.ContentType)
				assert.False(t, meta.UploadDate.IsZero())
				assert.Equal(t, time.UTC, meta.UploadDate.Location())
				assert.Equal(t, meta.UploadDate, meta.UploadDate.Truncate(time.Microsecond))
			},
		},
		{
			name: "defaults missing names",
			in: func() UploadInput {
				return UploadInput{Body: strings.NewReader("%PDF"), Size: -1}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Size: 4}, nil)
				mRepo.On("Save", ctx, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, meta *model.Metadata) {
				assert.Equal(t, "document.pdf", meta.OriginalName)
				assert.Equal(t, "Unknown", meta.BuyerName)
				assert.Equal(t, int64(4), meta.FileSize)
			},
		},
		{
			name: "validation error - nil body",
			in: func() UploadInput {
				return UploadInput{Size: 10}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {},
			wantErr:    ErrPDFRequired,
		},
		{
			name: "validation error - empty file",
			in: func() UploadInput {
				return UploadInput{Body: strings.NewReader(""), Size: 0}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {},
			wantErr:    ErrPDFRequired,
		},
		{
			name: "storage error",
			in: func() UploadInput {
				return UploadInput{Body: strings.NewReader("hello"), Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErrMsg: "storage fail",
		},
		{
			name: "metadata error with successful rollback",
			in: func() UploadInput {
				return UploadInput{Body: strings.NewReader("hello"), Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Size: 5}, nil)
				mRepo.On("Save", ctx, mock.Anything).Return(errors.New("meta fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "meta fail",
		},
		{
			name: "metadata error with failed rollback",
			in: func() UploadInput {
				return UploadInput{Body: strings.NewReader("hello"), Size: 5}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Size: 5}, nil)
				mRepo.On("Save", ctx, mock.Anything).Return(errors.New("meta fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockMetadataRepository)
			svc := NewDocumentService(mStore, mRepo, keys.ObjectStore)

			tt.setupMocks(mStore, mRepo)

			meta, err := svc.Upload(ctx, tt.in())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidation(err))
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				var se *StorageError
				assert.ErrorAs(t, err, &se)
			} else {
				require.NoError(t, err)
				require.NotNil(t, meta)
				if tt.check != nil {
					tt.check(t, meta)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Open(t *testing.T) {
	ctx := context.Background()
	id := "0b5bb4a4-6f5e-4a3c-9f0e-5d0f6a1c2b3d"
	blobKey := "pdfs/" + id

	tests := []struct {
		name         string
		setupMocks   func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository)
		wantErr      error
		wantErrMsg   string
		wantFilename string
	}{
		{
			name: "happy path",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Get", ctx, blobKey).Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{Size: 4}, nil)
				mRepo.On("FindByID", ctx, id).Return(&model.Metadata{ID: id, OriginalName: "invoice.pdf"}, nil)
			},
			wantFilename: "invoice.pdf",
		},
		{
			name: "missing metadata falls back",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Get", ctx, blobKey).Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{Size: 4}, nil)
				mRepo.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound)
			},
			wantFilename: "document.pdf",
		},
		{
			name: "blob not found",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Get", ctx, blobKey).Return(nil, storage.ObjectInfo{}, storage.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "blob storage error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Get", ctx, blobKey).Return(nil, storage.ObjectInfo{}, errors.New("io fail"))
			},
			wantErrMsg: "get blob",
		},
		{
			name: "metadata storage error",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Get", ctx, blobKey).Return(io.NopCloser(strings.NewReader("%PDF")), storage.ObjectInfo{Size: 4}, nil)
				mRepo.On("FindByID", ctx, id).Return(nil, errors.New("meta fail"))
			},
			wantErrMsg: "get metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockMetadataRepository)
			svc := NewDocumentService(mStore, mRepo, keys.ObjectStore)

			tt.setupMocks(mStore, mRepo)

			dl, err := svc.Open(ctx, id)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, dl)
			case tt.wantErrMsg != "":
				assert.ErrorContains(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				defer dl.Body.Close()
				assert.Equal(t, tt.wantFilename, dl.Filename)
				assert.Equal(t, int64(4), dl.Size)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Info(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(mRepo *repoMocks.MockMetadataRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			setupMocks: func(mRepo *repoMocks.MockMetadataRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(&model.Metadata{ID: "valid-id"}, nil)
			},
		},
		{
			name: "not found",
			setupMocks: func(mRepo *repoMocks.MockMetadataRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "repository error",
			setupMocks: func(mRepo *repoMocks.MockMetadataRepository) {
				mRepo.On("FindByID", ctx, "valid-id").Return(nil, errors.New("db fail"))
			},
			wantErr: errors.New("db fail"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockMetadataRepository)
			svc := NewDocumentService(nil, mRepo, keys.ObjectStore)

			tt.setupMocks(mRepo)

			meta, err := svc.Info(ctx, "valid-id")

			if tt.wantErr != nil {
				if errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					var se *StorageError
					assert.ErrorAs(t, err, &se)
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				assert.Nil(t, meta)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "valid-id", meta.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	t.Run("sorted newest first", func(t *testing.T) {
		mRepo := new(repoMocks.MockMetadataRepository)
		svc := NewDocumentService(nil, mRepo, keys.ObjectStore)

		mRepo.On("List", ctx).Return([]model.Metadata{
			{ID: "b", UploadDate: t2},
			{ID: "a", UploadDate: t1},
			{ID: "c", UploadDate: t3},
		}, nil)

		res, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		ids := []string{res.Items[0].ID, res.Items[1].ID, res.Items[2].ID}
		assert.Equal(t, []string{"c", "b", "a"}, ids)
	})

	t.Run("empty", func(t *testing.T) {
		mRepo := new(repoMocks.MockMetadataRepository)
		svc := NewDocumentService(nil, mRepo, keys.ObjectStore)
		mRepo.On("List", ctx).Return([]model.Metadata{}, nil)

		res, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.NotNil(t, res.Items)
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockMetadataRepository)
		svc := NewDocumentService(nil, mRepo, keys.ObjectStore)
		mRepo.On("List", ctx).Return(nil, errors.New("list fail"))

		_, err := svc.List(ctx)
		assert.EqualError(t, err, "list metadata: list fail")
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository)
		wantErrMsg []string
	}{
		{
			name: "happy path",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Delete", ctx, "abc.pdf").Return(nil)
				mRepo.On("Delete", ctx, "abc").Return(nil)
			},
		},
		{
			name: "blob delete fails, metadata still attempted",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Delete", ctx, "abc.pdf").Return(errors.New("storage fail"))
				mRepo.On("Delete", ctx, "abc").Return(nil)
			},
			wantErrMsg: []string{"delete blob: storage fail"},
		},
		{
			name: "metadata delete fails",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Delete", ctx, "abc.pdf").Return(nil)
				mRepo.On("Delete", ctx, "abc").Return(errors.New("db fail"))
			},
			wantErrMsg: []string{"delete metadata: db fail"},
		},
		{
			name: "both fail",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockMetadataRepository) {
				mStore.On("Delete", ctx, "abc.pdf").Return(errors.New("storage fail"))
				mRepo.On("Delete", ctx, "abc").Return(errors.New("db fail"))
			},
			wantErrMsg: []string{"storage fail", "db fail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockMetadataRepository)
			svc := NewDocumentService(mStore, mRepo, keys.Filesystem)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, "abc")

			if len(tt.wantErrMsg) > 0 {
				var se *StorageError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "abc", se.ID)
				for _, msg := range tt.wantErrMsg {
					assert.Contains(t, err.Error(), msg)
				}
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDecodePDFData(t *testing.T) {
	raw := []byte("%PDF-1.7\nbinary\x00\xff")
	encoded := "JVBERi0xLjcKYmluYXJ5AP8="

	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr error
	}{
		{name: "plain base64", in: encoded, want: raw},
		{name: "data url prefix", in: "data:application/pdf;base64," + encoded, want: raw},
		{name: "surrounding whitespace", in: "  " + encoded + "\n", want: raw},
		{name: "empty", in: "", wantErr: ErrPDFRequired},
		{name: "prefix only", in: "data:application/pdf;base64,", wantErr: ErrPDFRequired},
		{name: "garbage", in: "not base64!!", wantErr: ErrInvalidPDFData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePDFData(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("boom")

	assert.EqualError(t, &StorageError{Op: "read pdf", ID: "0b5bb4a4-6f5e-4a3c-9f0e-5d0f6a1c2b3d", Err: cause},
		"read pdf 0b5bb4a4-6f5e-4a3c-9f0e-5d0f6a1c2b3d: boom")
	assert.EqualError(t, &StorageError{Op: "list metadata", Err: cause}, "list metadata: boom")
	assert.ErrorIs(t, &StorageError{Op: "list metadata", Err: cause}, cause)
}
