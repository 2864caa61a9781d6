package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	v1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

const serviceAccountNamespace = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"

type KubernetesSecretsClient interface {
	GetSecret(ctx context.Context, namespace string, name string) (map[string][]byte, error)
}

// Secrets stored in Kubernetes secrets, referenced as [namespace/]secret/property
type KubernetesSecretsProvider struct {
	Client    KubernetesSecretsClient
	Namespace string
}

type KubernetesClient struct {
	Client *kubernetes.Clientset
}

func (c *KubernetesClient) GetSecret(ctx context.Context, namespace string, name string) (map[string][]byte, error) {
	secret, err := c.Client.CoreV1().Secrets(namespace).Get(ctx, name, v1.GetOptions{})
	if err != nil {
		return nil, err
	}
	return secret.Data, nil
}

func NewKubernetesProvider() *KubernetesSecretsProvider {
	return &KubernetesSecretsProvider{}
}

type kubernetesRef struct {
	namespace string
	secret    string
	property  string
}

func (p *KubernetesSecretsProvider) Read(ctx context.Context, secrets map[string]string) (map[string]string, error) {
	if err := p.configure(); err != nil {
		return nil, err
	}

	refs := map[string]kubernetesRef{}
	for name, id := range secrets {
		ref, err := p.parseKubernetesID(id)
		if err != nil {
			return nil, err
		}
		refs[name] = ref
	}

	result := map[string]string{}
	fetched := map[[2]string]map[string][]byte{}
	for name, ref := range refs {
		key := [2]string{ref.namespace, ref.secret}
		data, ok := fetched[key]
		if !ok {
			var err error
			data, err = p.Client.GetSecret(ctx, ref.namespace, ref.secret)
			log.Debug().
				Err(err).
				Str("namespace", ref.namespace).
				Str("secret", ref.secret).
				Msg("get kubernetes secret")
			if err != nil {
				log.Warn().Err(err).
					Str("namespace", ref.namespace).
					Str("secret", ref.secret).
					Msg("could not get kubernetes secret")
			}
			fetched[key] = data
		}

		val, ok := data[ref.property]
		if !ok {
			log.Warn().
				Str("namespace", ref.namespace).Str("secret", ref.secret).
				Str("property", ref.property).Str("name", name).
				Msg("property not found in kubernetes secret")
			continue
		}
		result[name] = strings.TrimSpace(string(val))
	}

	return result, nil
}

func (p *KubernetesSecretsProvider) parseKubernetesID(id string) (ref kubernetesRef, err error) {
	parts := strings.Split(id, "/")
	switch len(parts) {
	case 3:
		ref = kubernetesRef{namespace: parts[0], secret: parts[1], property: parts[2]}
	case 2:
		ref = kubernetesRef{namespace: p.Namespace, secret: parts[0], property: parts[1]}
	default:
		err = fmt.Errorf("invalid kubernetes secret id: %s", id)
	}
	return
}

func (p *KubernetesSecretsProvider) configure() error {
	if p.Client != nil {
		return nil
	}

	config, err := rest.InClusterConfig()
	if err != nil {
		return err
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return err
	}

	p.Client = &KubernetesClient{Client: client}
	p.Namespace = os.Getenv("KUBERNETES_POD_NAMESPACE")
	if p.Namespace == "" {
		ns, err := os.ReadFile(serviceAccountNamespace)
		if err == nil {
			p.Namespace = strings.TrimSpace(string(ns))
		} else {
			log.Debug().Msg("failed to obtain current kubernetes namespace, using default")
			p.Namespace = "default"
		}
	}

	return nil
}
