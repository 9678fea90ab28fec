// Package aws implements cloudbackend.Backend on top of AWS Batch and
// CloudFormation: a CloudFormation stack provisions the compute
// environment and job queue, Batch runs one job per query batch.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/batch"
	"github.com/aws/aws-sdk-go/service/cloudformation"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

func init() {
	cloudbackend.Register(config.ProviderAWS, New)
}

// Backend talks to AWS Batch and CloudFormation for one search's
// cluster-name-scoped stack.
type Backend struct {
	batch *batch.Batch
	cfn   *cloudformation.CloudFormation
	cfg   *config.Config
}

// New builds a Backend from cfg's [cloud-provider]/[cluster] sections.
func New(ctx context.Context, cfg *config.Config) (cloudbackend.Backend, error) {
	sessOpts := session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(cfg.Cloud.Region)},
	}
	if cfg.Cloud.Credentials != "" {
		sessOpts.Profile = cfg.Cloud.Credentials
	}
	sess, err := session.NewSessionWithOptions(sessOpts)
	if err != nil {
		return nil, elberrors.Dependency("opening AWS session: %v", err)
	}
	return &Backend{
		batch: batch.New(sess),
		cfn:   cloudformation.New(sess),
		cfg:   cfg,
	}, nil
}

func (b *Backend) stackName() string {
	return "elastic-blast-" + b.cfg.Cluster.Name
}

func (b *Backend) queueName() string {
	return b.cfg.Cluster.Name + "-queue"
}

func (b *Backend) computeEnvName() string {
	return b.cfg.Cluster.Name + "-ce"
}

// Provision reattaches to an existing stack in the same state it was
// left in, or creates a new one sized by cfg.Cluster.
func (b *Backend) Provision(ctx context.Context, cfg *config.Config) error {
	existing, err := b.cfn.DescribeStacksWithContext(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(b.stackName()),
	})
	if err == nil && len(existing.Stacks) > 0 {
		status := aws.StringValue(existing.Stacks[0].StackStatus)
		if status == cloudformation.StackStatusCreateComplete || status == cloudformation.StackStatusUpdateComplete {
			return nil
		}
	}

	if cfg.Cluster.DryRun {
		return nil
	}

	return elberrors.Retry(ctx, elberrors.DefaultPolicy, func(ctx context.Context) error {
		_, err := b.cfn.CreateStackWithContext(ctx, &cloudformation.CreateStackInput{
			StackName:    aws.String(b.stackName()),
			TemplateBody: aws.String(computeEnvironmentTemplate(cfg)),
			Tags:         cfnTags(cloudbackend.StandardLabels(cfg.Cluster.Name)),
			Capabilities: []*string{aws.String(cloudformation.CapabilityCapabilityIam)},
		})
		if err != nil {
			return elberrors.Transient(fmt.Errorf("creating stack %s: %w", b.stackName(), err))
		}
		return nil
	})
}

// SubmitJobs registers one job definition per search (sharing the image
// and resource shape) and submits one job per batch URI.
func (b *Backend) SubmitJobs(ctx context.Context, cfg *config.Config, batchURIs []string) ([]cloudbackend.Job, error) {
	jobDef, err := b.registerJobDefinition(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jobs := make([]cloudbackend.Job, 0, len(batchURIs))
	for i, uri := range batchURIs {
		name := fmt.Sprintf("%s-batch-%03d", cfg.Cluster.Name, i)
		var jobID string
		err := elberrors.Retry(ctx, elberrors.DefaultPolicy, func(ctx context.Context) error {
			out, err := b.batch.SubmitJobWithContext(ctx, &batch.SubmitJobInput{
				JobName:       aws.String(name),
				JobQueue:      aws.String(b.queueName()),
				JobDefinition: aws.String(jobDef),
				Tags:          awsTagPointers(cloudbackend.StandardLabels(cfg.Cluster.Name)),
				ContainerOverrides: &batch.ContainerOverrides{
					Environment: []*batch.KeyValuePair{
						{Name: aws.String("BATCH_URI"), Value: aws.String(uri)},
					},
				},
			})
			if err != nil {
				return elberrors.Transient(fmt.Errorf("submitting job %s: %w", name, err))
			}
			jobID = aws.StringValue(out.JobId)
			return nil
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, cloudbackend.Job{BatchURI: uri, ResourceName: jobID})
	}
	return jobs, nil
}

// CheckStatus describes every submitted job and tallies outcomes,
// reporting whether the search's CloudFormation stack exists and
// whether it has reached CREATE_COMPLETE.
func (b *Backend) CheckStatus(ctx context.Context, cfg *config.Config, jobs []cloudbackend.Job) (cloudbackend.JobCounts, bool, bool, error) {
	var counts cloudbackend.JobCounts

	if len(jobs) > 0 {
		ids := make([]*string, len(jobs))
		for i, j := range jobs {
			ids[i] = aws.String(j.ResourceName)
		}
		out, err := b.batch.DescribeJobsWithContext(ctx, &batch.DescribeJobsInput{Jobs: ids})
		if err != nil {
			return counts, false, false, elberrors.Dependency("describing AWS Batch jobs: %v", err)
		}
		for _, j := range out.Jobs {
			switch aws.StringValue(j.Status) {
			case batch.JobStatusSucceeded:
				counts.Succeeded++
			case batch.JobStatusFailed:
				counts.Failed++
			case batch.JobStatusSubmitted, batch.JobStatusPending, batch.JobStatusRunnable, batch.JobStatusStarting:
				counts.Pending++
			case batch.JobStatusRunning:
				counts.Running++
			}
		}
	}

	ceOut, err := b.cfn.DescribeStacksWithContext(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(b.stackName()),
	})
	clusterExists := err == nil && len(ceOut.Stacks) > 0
	clusterReady := clusterExists && aws.StringValue(ceOut.Stacks[0].StackStatus) == cloudformation.StackStatusCreateComplete

	return counts, clusterExists, clusterReady, nil
}

// Delete tears down the job queue, compute environment, and stack in
// reverse dependency order, tolerating "already gone" at each step.
func (b *Backend) Delete(ctx context.Context, cfg *config.Config) error {
	if _, err := b.batch.UpdateJobQueueWithContext(ctx, &batch.UpdateJobQueueInput{
		JobQueue: aws.String(b.queueName()),
		State:    aws.String(batch.JQStateDisabled),
	}); err != nil && !isNotFound(err) {
		return elberrors.Dependency("disabling job queue %s: %v", b.queueName(), err)
	}
	if _, err := b.batch.DeleteJobQueueWithContext(ctx, &batch.DeleteJobQueueInput{
		JobQueue: aws.String(b.queueName()),
	}); err != nil && !isNotFound(err) {
		return elberrors.Dependency("deleting job queue %s: %v", b.queueName(), err)
	}

	if _, err := b.batch.UpdateComputeEnvironmentWithContext(ctx, &batch.UpdateComputeEnvironmentInput{
		ComputeEnvironment: aws.String(b.computeEnvName()),
		State:              aws.String(batch.CEStateDisabled),
	}); err != nil && !isNotFound(err) {
		return elberrors.Dependency("disabling compute environment %s: %v", b.computeEnvName(), err)
	}
	if _, err := b.batch.DeleteComputeEnvironmentWithContext(ctx, &batch.DeleteComputeEnvironmentInput{
		ComputeEnvironment: aws.String(b.computeEnvName()),
	}); err != nil && !isNotFound(err) {
		return elberrors.Dependency("deleting compute environment %s: %v", b.computeEnvName(), err)
	}

	if _, err := b.cfn.DeleteStackWithContext(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(b.stackName()),
	}); err != nil && !isNotFound(err) {
		return elberrors.Dependency("deleting stack %s: %v", b.stackName(), err)
	}
	return nil
}

// cfnTags converts a label map into CloudFormation's tag shape.
func cfnTags(labels map[string]string) []*cloudformation.Tag {
	tags := make([]*cloudformation.Tag, 0, len(labels))
	for k, v := range labels {
		tags = append(tags, &cloudformation.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return tags
}

// awsTagPointers converts a label map into Batch's map[string]*string tag
// shape.
func awsTagPointers(labels map[string]string) map[string]*string {
	tags := make(map[string]*string, len(labels))
	for k, v := range labels {
		tags[k] = aws.String(v)
	}
	return tags
}

func isNotFound(err error) bool {
	return err != nil && (contains(err.Error(), "does not exist") || contains(err.Error(), "NotFound") || contains(err.Error(), "ValidationError"))
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 || indexOf(s, substr) >= 0)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func (b *Backend) registerJobDefinition(ctx context.Context, cfg *config.Config) (string, error) {
	out, err := b.batch.RegisterJobDefinitionWithContext(ctx, &batch.RegisterJobDefinitionInput{
		JobDefinitionName: aws.String(cfg.Cluster.Name + "-jobdef"),
		Type:              aws.String(batch.JobDefinitionTypeContainer),
		ContainerProperties: &batch.ContainerProperties{
			Image:  aws.String(elasticBlastImage),
			Vcpus:  aws.Int64(int64(cfg.Cluster.NumCPUs)),
			Memory: aws.Int64(memoryMiB(cfg.Blast.MemLimit)),
			Command: []*string{
				aws.String("elastic-blast-worker"),
			},
		},
	})
	if err != nil {
		return "", elberrors.Dependency("registering job definition: %v", err)
	}
	return aws.StringValue(out.JobDefinitionArn), nil
}
