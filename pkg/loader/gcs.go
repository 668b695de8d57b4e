package loader

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

// FetchJobsFromGCS downloads a job CSV from bucket/object. Objects ending in
// .gz are decompressed on the fly.
func FetchJobsFromGCS(ctx context.Context, bucket, object string) ([]core.Workload, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "create GCS client")
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "open gs://%s/%s", bucket, object)
	}
	defer rc.Close()

	jobs, err := DecodeJobs(rc, strings.HasSuffix(object, ".gz"))
	if err != nil {
		return nil, errors.WithMessagef(err, "gs://%s/%s", bucket, object)
	}
	klog.V(1).InfoS("Fetched job batch", "bucket", bucket, "object", object, "jobs", len(jobs))
	return jobs, nil
}

// DecodeJobs reads a job CSV, gunzipping it first when gzipped is set.
func DecodeJobs(r io.Reader, gzipped bool) ([]core.Workload, error) {
	if gzipped {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "decompress gzip")
		}
		defer gzr.Close()
		r = gzr
	}
	return ReadJobsCSV(bufio.NewReader(r))
}
