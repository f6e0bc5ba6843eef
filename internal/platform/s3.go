package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// BucketExists checks the state bucket directly against S3.
func (c *Clients) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.S3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			if ae.ErrorCode() == "NotFound" || ae.ErrorCode() == "NoSuchBucket" {
				return false, nil
			}
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	return true, nil
}

// DrainBucket deletes every object version and delete marker in the bucket.
// A versioned bucket rejects deletion while non-empty, so this must run
// before DeleteBucket. Returns the number of entries removed.
func (c *Clients) DrainBucket(ctx context.Context, bucket string) (int, error) {
	removed := 0
	var keyMarker, versionMarker *string

	for {
		page, err := c.S3.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
			Bucket:          aws.String(bucket),
			KeyMarker:       keyMarker,
			VersionIdMarker: versionMarker,
		})
		if err != nil {
			return removed, fmt.Errorf("failed to list versions in %s: %w", bucket, err)
		}

		var objects []s3types.ObjectIdentifier
		for _, v := range page.Versions {
			objects = append(objects, s3types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
		}
		for _, m := range page.DeleteMarkers {
			objects = append(objects, s3types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
		}

		if len(objects) > 0 {
			out, err := c.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(bucket),
				Delete: &s3types.Delete{
					Objects: objects,
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				return removed, fmt.Errorf("failed to delete versions in %s: %w", bucket, err)
			}
			if len(out.Errors) > 0 {
				e := out.Errors[0]
				return removed, fmt.Errorf("failed to delete %s in %s: %s",
					aws.ToString(e.Key), bucket, aws.ToString(e.Message))
			}
			removed += len(objects)
		}

		if !aws.ToBool(page.IsTruncated) {
			return removed, nil
		}
		keyMarker = page.NextKeyMarker
		versionMarker = page.NextVersionIdMarker
	}
}

// DeleteBucket removes the (already drained) bucket. Missing buckets are
// treated as success so uninstall retries converge.
func (c *Clients) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := c.S3.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) && ae.ErrorCode() == "NoSuchBucket" {
			return nil
		}
		return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
	}
	return nil
}
