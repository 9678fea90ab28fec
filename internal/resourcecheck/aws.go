package resourcecheck

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/batch"
	"github.com/aws/aws-sdk-go/service/servicequotas"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

// ec2StandardOnDemandCode and ec2StandardSpotCode are the Service
// Quotas codes for "Running On-Demand Standard (A, C, D, H, I, M, R,
// T, Z) instances" and its Spot equivalent, the two vCPU pools
// elastic-blast's managed compute environments draw from.
const (
	ec2StandardOnDemandCode = "L-1216C47A"
	ec2StandardSpotCode     = "L-34B43A08"
)

// batchComputeEnvsCode and batchJobQueuesCode are the Service Quotas
// codes for the per-account "Compute environments" and "Job queues"
// limits AWS Batch enforces; each elastic-blast cluster provisions one
// of each, so an account already at either limit cannot provision a
// new cluster.
const (
	batchComputeEnvsCode = "L-B6FF9F1C"
	batchJobQueuesCode   = "L-5409A3B0"
)

func checkAWS(ctx context.Context, cfg *config.Config, log elblog.Logger) error {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            aws.Config{Region: aws.String(cfg.Cloud.Region)},
	})
	if err != nil {
		return elberrors.Dependency("opening AWS session for quota check: %v", err)
	}

	quotas := servicequotas.New(sess)
	if err := checkAWSvCPUQuota(ctx, quotas, cfg, log); err != nil {
		return err
	}
	return checkAWSComputeEnvironments(ctx, batch.New(sess), quotas, cfg, log)
}

func checkAWSvCPUQuota(ctx context.Context, client *servicequotas.ServiceQuotas, cfg *config.Config, log elblog.Logger) error {
	if cfg.Cluster.NumCPUs <= 0 {
		// "optimal" machine type: vCPU count is unknown until AWS Batch
		// picks an instance, so there is nothing to check yet.
		return nil
	}

	code := ec2StandardOnDemandCode
	if cfg.Cluster.Preemptible {
		code = ec2StandardSpotCode
	}

	out, err := client.GetServiceQuotaWithContext(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String("ec2"),
		QuotaCode:   aws.String(code),
	})
	if err != nil {
		log.Warn("could not read EC2 vCPU quota, skipping pre-flight check", "error", err.Error())
		return nil
	}
	limit := int(aws.Float64Value(out.Quota.Value))

	if limit < cfg.Cluster.NumCPUs {
		return elberrors.Dependency(
			"your account has a quota limit of %d vCPUs; the requested machine type needs %d vCPUs per instance and cannot be provisioned; request a quota increase for EC2 service code %s or choose a smaller instance type",
			limit, cfg.Cluster.NumCPUs, code)
	}
	if want := cfg.Cluster.NumCPUs * cfg.Cluster.NumNodes; limit < want {
		log.Warn("vCPU quota limits fleet size",
			"requestedVCPUs", want, "quotaLimit", limit)
	}
	return nil
}

// checkAWSComputeEnvironments counts the account's existing Batch
// compute environments and job queues against their Service Quotas
// limits; provisioning a new cluster needs one free slot in each, so
// an account already at either limit fails here rather than hanging
// with a stack stuck in CREATE_IN_PROGRESS.
func checkAWSComputeEnvironments(ctx context.Context, client *batch.Batch, quotas *servicequotas.ServiceQuotas, cfg *config.Config, log elblog.Logger) error {
	if err := checkBatchAccountLimit(ctx, client, quotas, "compute environments", batchComputeEnvsCode, countComputeEnvironments, log); err != nil {
		return err
	}
	return checkBatchAccountLimit(ctx, client, quotas, "job queues", batchJobQueuesCode, countJobQueues, log)
}

// checkBatchAccountLimit fails if count(client) has already reached the
// account's Service Quotas limit for quotaCode, identified by resource
// for diagnostics.
func checkBatchAccountLimit(ctx context.Context, client *batch.Batch, quotas *servicequotas.ServiceQuotas, resource, quotaCode string, count func(context.Context, *batch.Batch) (int, error), log elblog.Logger) error {
	quota, err := quotas.GetServiceQuotaWithContext(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String("batch"),
		QuotaCode:   aws.String(quotaCode),
	})
	if err != nil {
		log.Warn("could not read AWS Batch "+resource+" quota, skipping pre-flight check", "error", err.Error())
		return nil
	}
	limit := int(aws.Float64Value(quota.Quota.Value))

	existing, err := count(ctx, client)
	if err != nil {
		log.Warn("could not count existing AWS Batch "+resource+", skipping pre-flight check", "error", err.Error())
		return nil
	}

	if existing >= limit {
		return elberrors.Dependency(
			"your account already has %d of %d allowed AWS Batch %s; delete unused elastic-blast clusters or request a quota increase before submitting a new one",
			existing, limit, resource)
	}
	return nil
}

func countComputeEnvironments(ctx context.Context, client *batch.Batch) (int, error) {
	total := 0
	var nextToken *string
	for {
		out, err := client.DescribeComputeEnvironmentsWithContext(ctx, &batch.DescribeComputeEnvironmentsInput{NextToken: nextToken})
		if err != nil {
			return 0, err
		}
		total += len(out.ComputeEnvironments)
		if out.NextToken == nil || aws.StringValue(out.NextToken) == "" {
			return total, nil
		}
		nextToken = out.NextToken
	}
}

func countJobQueues(ctx context.Context, client *batch.Batch) (int, error) {
	total := 0
	var nextToken *string
	for {
		out, err := client.DescribeJobQueuesWithContext(ctx, &batch.DescribeJobQueuesInput{NextToken: nextToken})
		if err != nil {
			return 0, err
		}
		total += len(out.JobQueues)
		if out.NextToken == nil || aws.StringValue(out.NextToken) == "" {
			return total, nil
		}
		nextToken = out.NextToken
	}
}
