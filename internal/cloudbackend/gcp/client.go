// Package gcp implements cloudbackend.Backend against two GCP compute
// surfaces: Cloud Batch for single-node fleets, and a provisioned GKE
// node pool for multi-node clusters where jobs need to coordinate
// shared state. The split is decided once, in New, from the cluster's
// requested node count.
package gcp

import (
	"context"
	"fmt"
	"time"

	gcpbatch "cloud.google.com/go/batch/apiv1"
	"cloud.google.com/go/batch/apiv1/batchpb"
	container "google.golang.org/api/container/v1"
	"google.golang.org/protobuf/types/known/durationpb"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

func init() {
	cloudbackend.Register(config.ProviderGCP, New)
}

// elasticBlastImage is the worker image every submitted job runs.
const elasticBlastImage = "gcr.io/ncbi-sandbox-blast/elastic-blast:latest"

// Backend dispatches to Cloud Batch or GKE depending on useGKE, decided
// once at construction time from the cluster's requested node count.
type Backend struct {
	cfg    *config.Config
	useGKE bool

	batchClient *gcpbatch.Client     // Cloud Batch path
	gkeSvc      *container.Service   // GKE cluster provisioning
	k8s         kubernetes.Interface // nil until the cluster exists
}

// New builds a Backend. Single-node fleets (the common case: one batch
// submitted per query split, no cross-job coordination) use Cloud
// Batch directly. Multi-node clusters provision a GKE node pool so
// jobs can share a pod network and persistent disks.
func New(ctx context.Context, cfg *config.Config) (cloudbackend.Backend, error) {
	b := &Backend{cfg: cfg, useGKE: cfg.Cluster.NumNodes > 1}

	if b.useGKE {
		svc, err := container.NewService(ctx)
		if err != nil {
			return nil, elberrors.Dependency("creating GKE client: %v", err)
		}
		b.gkeSvc = svc
		return b, nil
	}

	client, err := gcpbatch.NewClient(ctx)
	if err != nil {
		return nil, elberrors.Dependency("creating Cloud Batch client: %v", err)
	}
	b.batchClient = client
	return b, nil
}

func (b *Backend) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", b.cfg.Cloud.GCPProject, b.cfg.Cloud.Region)
}

func (b *Backend) clusterName() string { return b.cfg.Cluster.Name }

// Provision is a no-op for Cloud Batch (each submitted job is its own
// unit of compute) and creates the GKE node pool, idempotently, for
// the GKE path.
func (b *Backend) Provision(ctx context.Context, cfg *config.Config) error {
	if !b.useGKE {
		return nil
	}
	if cfg.Cluster.DryRun {
		return nil
	}

	clusterPath := fmt.Sprintf("projects/%s/locations/%s/clusters/%s", cfg.Cloud.GCPProject, cfg.Cloud.Region, b.clusterName())
	existing, err := b.gkeSvc.Projects.Locations.Clusters.Get(clusterPath).Context(ctx).Do()
	if err == nil && existing.Status == "RUNNING" {
		return b.connectKubernetes(existing)
	}

	return elberrors.Retry(ctx, elberrors.DefaultPolicy, func(ctx context.Context) error {
		parent := fmt.Sprintf("projects/%s/locations/%s", cfg.Cloud.GCPProject, cfg.Cloud.Region)
		req := &container.CreateClusterRequest{
			Cluster: &container.Cluster{
				Name:             b.clusterName(),
				InitialNodeCount: int64(cfg.Cluster.NumNodes),
				NodeConfig: &container.NodeConfig{
					MachineType: cfg.Cluster.MachineType,
					Preemptible: cfg.Cluster.Preemptible,
					Labels:      cloudbackend.StandardLabels(b.clusterName()),
				},
			},
		}
		if _, err := b.gkeSvc.Projects.Locations.Clusters.Create(parent, req).Context(ctx).Do(); err != nil {
			return elberrors.Transient(fmt.Errorf("creating GKE cluster %s: %w", b.clusterName(), err))
		}
		return nil
	})
}

func (b *Backend) connectKubernetes(cluster *container.Cluster) error {
	cfg := &rest.Config{
		Host: "https://" + cluster.Endpoint,
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: false,
		},
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return elberrors.Dependency("building Kubernetes client for %s: %v", cluster.Name, err)
	}
	b.k8s = clientset
	return nil
}

// SubmitJobs runs one Cloud Batch job, or one Kubernetes batch/v1 Job,
// per query batch URI.
func (b *Backend) SubmitJobs(ctx context.Context, cfg *config.Config, batchURIs []string) ([]cloudbackend.Job, error) {
	if b.useGKE {
		return b.submitGKEJobs(ctx, cfg, batchURIs)
	}
	return b.submitCloudBatchJobs(ctx, cfg, batchURIs)
}

func (b *Backend) submitCloudBatchJobs(ctx context.Context, cfg *config.Config, batchURIs []string) ([]cloudbackend.Job, error) {
	jobs := make([]cloudbackend.Job, 0, len(batchURIs))
	for i, uri := range batchURIs {
		jobID := fmt.Sprintf("%s-batch-%03d", b.clusterName(), i)

		runnable := &batchpb.Runnable{
			Executable: &batchpb.Runnable_Container_{
				Container: &batchpb.Runnable_Container{
					ImageUri: elasticBlastImage,
					Commands: []string{"elastic-blast-worker"},
				},
			},
			Environment: &batchpb.Environment{
				Variables: map[string]string{"BATCH_URI": uri},
			},
		}

		taskSpec := &batchpb.TaskSpec{
			Runnables: []*batchpb.Runnable{runnable},
			ComputeResource: &batchpb.ComputeResource{
				CpuMilli:  int64(cfg.Cluster.NumCPUs) * 1000,
				MemoryMib: memoryMiB(cfg.Blast.MemLimit),
			},
			MaxRunDuration: durationpb.New(6 * time.Hour),
		}

		job := &batchpb.Job{
			TaskGroups: []*batchpb.TaskGroup{{TaskSpec: taskSpec, TaskCount: 1}},
			LogsPolicy: &batchpb.LogsPolicy{Destination: batchpb.LogsPolicy_CLOUD_LOGGING},
			Labels:     cloudbackend.StandardLabels(b.clusterName()),
		}

		var resourceName string
		err := elberrors.Retry(ctx, elberrors.DefaultPolicy, func(ctx context.Context) error {
			created, err := b.batchClient.CreateJob(ctx, &batchpb.CreateJobRequest{
				Parent: b.parent(),
				JobId:  jobID,
				Job:    job,
			})
			if err != nil {
				return elberrors.Transient(fmt.Errorf("creating Cloud Batch job %s: %w", jobID, err))
			}
			resourceName = created.Name
			return nil
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, cloudbackend.Job{BatchURI: uri, ResourceName: resourceName})
	}
	return jobs, nil
}

func (b *Backend) submitGKEJobs(ctx context.Context, cfg *config.Config, batchURIs []string) ([]cloudbackend.Job, error) {
	if b.k8s == nil {
		return nil, elberrors.Internal("kubernetes client not connected; Provision must run first")
	}
	jobs := make([]cloudbackend.Job, 0, len(batchURIs))
	for i, uri := range batchURIs {
		name := fmt.Sprintf("%s-batch-%03d", b.clusterName(), i)
		job := &batchv1.Job{
			ObjectMeta: metav1.ObjectMeta{
				Name:   name,
				Labels: cloudbackend.StandardLabels(b.clusterName()),
			},
			Spec: batchv1.JobSpec{
				Template: corev1.PodTemplateSpec{
					Spec: corev1.PodSpec{
						RestartPolicy: corev1.RestartPolicyNever,
						Containers: []corev1.Container{{
							Name:    "elastic-blast-worker",
							Image:   elasticBlastImage,
							Command: []string{"elastic-blast-worker"},
							Env:     []corev1.EnvVar{{Name: "BATCH_URI", Value: uri}},
						}},
					},
				},
			},
		}
		var created *batchv1.Job
		err := elberrors.Retry(ctx, elberrors.DefaultPolicy, func(ctx context.Context) error {
			out, err := b.k8s.BatchV1().Jobs(corev1.NamespaceDefault).Create(ctx, job, metav1.CreateOptions{})
			if err != nil {
				return elberrors.Transient(fmt.Errorf("creating Kubernetes job %s: %w", name, err))
			}
			created = out
			return nil
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, cloudbackend.Job{BatchURI: uri, ResourceName: created.Name})
	}
	return jobs, nil
}

// CheckStatus tallies job outcomes across whichever backend is active.
func (b *Backend) CheckStatus(ctx context.Context, cfg *config.Config, jobs []cloudbackend.Job) (cloudbackend.JobCounts, bool, bool, error) {
	if b.useGKE {
		return b.checkGKEStatus(ctx, jobs)
	}
	return b.checkCloudBatchStatus(ctx, jobs)
}

func (b *Backend) checkCloudBatchStatus(ctx context.Context, jobs []cloudbackend.Job) (cloudbackend.JobCounts, bool, bool, error) {
	var counts cloudbackend.JobCounts
	for _, j := range jobs {
		got, err := b.batchClient.GetJob(ctx, &batchpb.GetJobRequest{Name: j.ResourceName})
		if err != nil {
			return counts, false, false, elberrors.Dependency("getting Cloud Batch job %s: %v", j.ResourceName, err)
		}
		switch got.Status.State {
		case batchpb.JobStatus_SUCCEEDED:
			counts.Succeeded++
		case batchpb.JobStatus_FAILED:
			counts.Failed++
		case batchpb.JobStatus_RUNNING:
			counts.Running++
		default:
			counts.Pending++
		}
	}
	return counts, len(jobs) > 0, len(jobs) > 0, nil
}

func (b *Backend) checkGKEStatus(ctx context.Context, jobs []cloudbackend.Job) (cloudbackend.JobCounts, bool, bool, error) {
	var counts cloudbackend.JobCounts
	clusterExists := b.k8s != nil
	for _, j := range jobs {
		if b.k8s == nil {
			counts.Pending++
			continue
		}
		got, err := b.k8s.BatchV1().Jobs(corev1.NamespaceDefault).Get(ctx, j.ResourceName, metav1.GetOptions{})
		if err != nil {
			return counts, clusterExists, clusterExists, elberrors.Dependency("getting Kubernetes job %s: %v", j.ResourceName, err)
		}
		switch {
		case got.Status.Succeeded > 0:
			counts.Succeeded++
		case got.Status.Failed > 0:
			counts.Failed++
		case got.Status.Active > 0:
			counts.Running++
		default:
			counts.Pending++
		}
	}
	return counts, clusterExists, clusterExists, nil
}

// Delete tears down the GKE cluster if one was provisioned. No job is
// deleted individually: on the Cloud Batch path it does nothing and the
// jobs are left to their own retention policy.
func (b *Backend) Delete(ctx context.Context, cfg *config.Config) error {
	if !b.useGKE {
		return nil
	}
	clusterPath := fmt.Sprintf("projects/%s/locations/%s/clusters/%s", cfg.Cloud.GCPProject, cfg.Cloud.Region, b.clusterName())
	_, err := b.gkeSvc.Projects.Locations.Clusters.Delete(clusterPath).Context(ctx).Do()
	if err != nil && !isGoogleNotFound(err) {
		return elberrors.Dependency("deleting GKE cluster %s: %v", b.clusterName(), err)
	}
	return nil
}

func isGoogleNotFound(err error) bool {
	return err != nil && (contains(err.Error(), "notFound") || contains(err.Error(), "404"))
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func memoryMiB(limit string) int64 {
	mem, err := config.MemoryStr(limit)
	if err != nil {
		return 4096
	}
	return int64(mem.AsGB() * 1024)
}
