package sweep

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"VelSweeper/internal/s3"
)

func TestExecute_Output(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "a/app.js", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "b/index.html", Size: 1500, LastModified: t2},
		s3.ObjectInfo{Key: "c/index.html", Size: 4096, LastModified: t3},
	)
	selection := []s3.ObjectInfo{
		{Key: "a/index.html", LastModified: t1},
		{Key: "b/index.html", LastModified: t2},
	}

	var out bytes.Buffer
	report := Execute(context.Background(), fake, selection, ExecuteOptions{Out: &out})

	want := "Deleting 2 old deployments from s3://test-bucket:\n\n" +
		" Deleting s3://test-bucket/a\n" +
		" Deleting s3://test-bucket/b\n\n" +
		"Deletion finished.\n" +
		"Total Deleted Deployments: 2\n" +
		"Total Deleted Data: 3 KB\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if report.Deployments != 2 {
		t.Errorf("Deployments = %d, want 2", report.Deployments)
	}
	if report.TotalBytes != 3548 {
		t.Errorf("TotalBytes = %d, want 3548", report.TotalBytes)
	}
	if len(report.Failures) != 0 {
		t.Errorf("Failures = %v, want none", report.Failures)
	}
	if _, ok := fake.objects["c/index.html"]; !ok {
		t.Error("retained deployment c was deleted")
	}
	if _, ok := fake.objects["a/index.html"]; ok {
		t.Error("selected deployment a was not deleted")
	}
}

func TestExecute_DryRun(t *testing.T) {
	build := func() *fakeStorage {
		return newFakeStorage(
			s3.ObjectInfo{Key: "a/index.html", Size: 2048, LastModified: t1},
			s3.ObjectInfo{Key: "b/index.html", Size: 1024, LastModified: t2},
		)
	}
	selection := []s3.ObjectInfo{
		{Key: "a/index.html", LastModified: t1},
		{Key: "b/index.html", LastModified: t2},
	}

	var out bytes.Buffer
	dry := Execute(context.Background(), build(), selection, ExecuteOptions{DryRun: true, Out: &out})
	real := Execute(context.Background(), build(), selection, ExecuteOptions{})

	if !dry.DryRun {
		t.Error("dry report should carry the dry-run flag")
	}
	if dry.Deployments != real.Deployments || dry.TotalBytes != real.TotalBytes {
		t.Errorf("dry run reported %d/%d, real run %d/%d",
			dry.Deployments, dry.TotalBytes, real.Deployments, real.TotalBytes)
	}
	if !strings.Contains(out.String(), "!!! Dry run enabled, no data has been deleted. !!!") {
		t.Errorf("dry-run banner missing from output: %q", out.String())
	}

	fake := build()
	Execute(context.Background(), fake, selection, ExecuteOptions{DryRun: true})
	if len(fake.deleteCalls) != 0 {
		t.Errorf("dry run issued delete calls: %v", fake.deleteCalls)
	}
	if len(fake.objects) != 2 {
		t.Errorf("dry run removed objects, %d remain", len(fake.objects))
	}
}

func TestExecute_DedupesSharedPrefix(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "a/beta/index.html", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "b/index.html", Size: 1024, LastModified: t2},
	)
	selection := []s3.ObjectInfo{
		{Key: "a/index.html", LastModified: t1},
		{Key: "a/beta/index.html", LastModified: t1},
		{Key: "b/index.html", LastModified: t2},
	}

	var out bytes.Buffer
	report := Execute(context.Background(), fake, selection, ExecuteOptions{Out: &out})

	if !strings.Contains(out.String(), "Deleting 2 old deployments") {
		t.Errorf("header should count unique prefixes: %q", out.String())
	}
	if len(fake.deleteCalls) != 2 {
		t.Errorf("deleteCalls = %v, want one per unique prefix", fake.deleteCalls)
	}
	if report.Deployments != 2 {
		t.Errorf("Deployments = %d, want 2", report.Deployments)
	}
	if report.TotalBytes != 3072 {
		t.Errorf("TotalBytes = %d, want 3072", report.TotalBytes)
	}
}

func TestExecute_ContinuesAfterDeleteFailure(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "b/index.html", Size: 1024, LastModified: t2},
		s3.ObjectInfo{Key: "c/index.html", Size: 1024, LastModified: t3},
	)
	fake.deleteErrs = map[string]error{"b": errors.New("access denied")}
	selection := []s3.ObjectInfo{
		{Key: "a/index.html", LastModified: t1},
		{Key: "b/index.html", LastModified: t2},
		{Key: "c/index.html", LastModified: t3},
	}

	report := Execute(context.Background(), fake, selection, ExecuteOptions{})

	if report.Deployments != 2 {
		t.Errorf("Deployments = %d, want 2", report.Deployments)
	}
	if report.TotalBytes != 2048 {
		t.Errorf("TotalBytes = %d, want 2048 (failed prefix excluded)", report.TotalBytes)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %v, want exactly one", report.Failures)
	}
	if report.Failures[0].Prefix != "b" {
		t.Errorf("Failures[0].Prefix = %q, want b", report.Failures[0].Prefix)
	}
	if _, ok := fake.objects["a/index.html"]; ok {
		t.Error("prefix a should have been deleted despite b failing")
	}
	if _, ok := fake.objects["c/index.html"]; ok {
		t.Error("prefix c should have been deleted despite b failing")
	}
}

func TestExecute_CanceledContextStops(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "b/index.html", Size: 1024, LastModified: t2},
	)
	selection := []s3.ObjectInfo{
		{Key: "a/index.html", LastModified: t1},
		{Key: "b/index.html", LastModified: t2},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := Execute(ctx, fake, selection, ExecuteOptions{})

	if len(fake.deleteCalls) != 0 {
		t.Errorf("deleteCalls = %v, want none after cancellation", fake.deleteCalls)
	}
	if report.Deployments != 0 {
		t.Errorf("Deployments = %d, want 0", report.Deployments)
	}
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, context.Canceled) {
		t.Errorf("Failures = %v, want a single context.Canceled failure", report.Failures)
	}
}

func TestExecute_SizeLookupFailureSkipsDelete(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 1024, LastModified: t1},
		s3.ObjectInfo{Key: "b/index.html", Size: 1024, LastModified: t2},
	)
	fake.sizeErrs = map[string]error{"a": errors.New("timeout")}
	selection := []s3.ObjectInfo{
		{Key: "a/index.html", LastModified: t1},
		{Key: "b/index.html", LastModified: t2},
	}

	report := Execute(context.Background(), fake, selection, ExecuteOptions{})

	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %v, want exactly one", report.Failures)
	}
	if !strings.Contains(report.Failures[0].Err.Error(), "size lookup") {
		t.Errorf("Failures[0].Err = %v, want size lookup error", report.Failures[0].Err)
	}
	for _, p := range fake.deleteCalls {
		if p == "a" {
			t.Error("prefix a should not be deleted after its size lookup failed")
		}
	}
	if _, ok := fake.objects["b/index.html"]; ok {
		t.Error("prefix b should have been deleted")
	}
}

func TestExecute_SkipSize(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 4096, LastModified: t1},
	)
	selection := []s3.ObjectInfo{{Key: "a/index.html", LastModified: t1}}

	var out bytes.Buffer
	report := Execute(context.Background(), fake, selection, ExecuteOptions{SkipSize: true, Out: &out})

	if fake.sizeCalls != 0 {
		t.Errorf("sizeCalls = %d, want 0", fake.sizeCalls)
	}
	if report.TotalBytes != 0 {
		t.Errorf("TotalBytes = %d, want 0", report.TotalBytes)
	}
	if strings.Contains(out.String(), "Total Deleted Data") {
		t.Errorf("size line should be omitted when skipping size accounting: %q", out.String())
	}
	if _, ok := fake.objects["a/index.html"]; ok {
		t.Error("deletion should still happen when size accounting is skipped")
	}
}

func TestExecute_EmptySelection(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "a/index.html", Size: 1024, LastModified: t1},
	)

	var out bytes.Buffer
	report := Execute(context.Background(), fake, nil, ExecuteOptions{Out: &out})

	if report.Deployments != 0 || report.TotalBytes != 0 {
		t.Errorf("report = %+v, want zero counts", report)
	}
	if !strings.Contains(out.String(), "Deleting 0 old deployments") {
		t.Errorf("output = %q, want zero-deployment header", out.String())
	}
	if len(fake.deleteCalls) != 0 {
		t.Errorf("deleteCalls = %v, want none", fake.deleteCalls)
	}
}

func TestExecute_MarkerWithoutSeparator(t *testing.T) {
	fake := newFakeStorage(
		s3.ObjectInfo{Key: "index.html", Size: 512, LastModified: t1},
	)
	selection := []s3.ObjectInfo{{Key: "index.html", LastModified: t1}}

	Execute(context.Background(), fake, selection, ExecuteOptions{})

	if len(fake.deleteCalls) != 1 || fake.deleteCalls[0] != "index.html" {
		t.Errorf("deleteCalls = %v, want [index.html]", fake.deleteCalls)
	}
	if _, ok := fake.objects["index.html"]; ok {
		t.Error("bare marker object should be deleted as its own prefix")
	}
}

// fakeStorage implements Storage for tests.
type fakeStorage struct {
	bucket      string
	objects     map[string]s3.ObjectInfo
	listErr     error
	sizeErrs    map[string]error
	deleteErrs  map[string]error
	deleteCalls []string
	sizeCalls   int
}

func newFakeStorage(objects ...s3.ObjectInfo) *fakeStorage {
	f := &fakeStorage{bucket: "test-bucket", objects: make(map[string]s3.ObjectInfo)}
	for _, o := range objects {
		f.objects[o.Key] = o
	}
	return f
}

func (f *fakeStorage) ListAllObjects(_ context.Context) ([]s3.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]s3.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, f.objects[k])
	}
	return out, nil
}

func (f *fakeStorage) SizeUnderPrefix(_ context.Context, prefix string) (int64, error) {
	f.sizeCalls++
	if err := f.sizeErrs[prefix]; err != nil {
		return 0, err
	}
	var total int64
	for k, o := range f.objects {
		if strings.HasPrefix(k, prefix) {
			total += o.Size
		}
	}
	return total, nil
}

func (f *fakeStorage) DeleteUnderPrefix(_ context.Context, prefix string) error {
	f.deleteCalls = append(f.deleteCalls, prefix)
	if err := f.deleteErrs[prefix]; err != nil {
		return err
	}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			delete(f.objects, k)
		}
	}
	return nil
}

func (f *fakeStorage) URI(relative string) string {
	return s3.URI(f.bucket, relative)
}
