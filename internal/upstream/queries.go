package upstream

// repositoryPageSize matches the spec's "repositories connection of size
// 100" pagination requirement.
const repositoryPageSize = 100

// queryResolve is the first page: it projects both user(login:) and
// organization(login:) at the top level, exactly one of which is expected
// to resolve for any real account. Account resolution only ever happens on
// this page; later pages only add repositories.
const queryResolve = `
query($login: String!) {
	user(login: $login) {
		id
		name
		avatarUrl
		createdAt
		email
		followers { totalCount }
		following { totalCount }
		repositories(first: 100, ownerAffiliations: OWNER, orderBy: {field: PUSHED_AT, direction: DESC}) {
			nodes {
				name
				isFork
				primaryLanguage { name }
			}
			pageInfo { endCursor hasNextPage }
		}
	}
	organization(login: $login) {
		id
		name
		avatarUrl
		createdAt
		isVerified
		membersWithRole { totalCount }
		repositories(first: 100, orderBy: {field: PUSHED_AT, direction: DESC}) {
			nodes {
				name
				isFork
				primaryLanguage { name }
			}
			pageInfo { endCursor hasNextPage }
		}
	}
}`

// queryUserRepoPage pages a resolved user's self-owned repositories.
const queryUserRepoPage = `
query($login: String!, $cursor: String) {
	user(login: $login) {
		repositories(first: 100, ownerAffiliations: OWNER, after: $cursor, orderBy: {field: PUSHED_AT, direction: DESC}) {
			nodes {
				name
				isFork
				primaryLanguage { name }
			}
			pageInfo { endCursor hasNextPage }
		}
	}
}`

// queryOrgRepoPage pages a resolved organization's repositories. No
// ownerAffiliations restriction: organizations don't have affiliation tiers.
const queryOrgRepoPage = `
query($login: String!, $cursor: String) {
	organization(login: $login) {
		repositories(first: 100, after: $cursor, orderBy: {field: PUSHED_AT, direction: DESC}) {
			nodes {
				name
				isFork
				primaryLanguage { name }
			}
			pageInfo { endCursor hasNextPage }
		}
	}
}`

type graphQLEnvelope struct {
	Data   *queryData     `json:"data"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type queryData struct {
	User         *accountNode `json:"user"`
	Organization *accountNode `json:"organization"`
}

type countField struct {
	TotalCount int `json:"totalCount"`
}

type accountNode struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	AvatarURL       string          `json:"avatarUrl"`
	CreatedAt       string          `json:"createdAt"`
	Email           string          `json:"email"`
	IsVerified      *bool           `json:"isVerified"`
	Followers       *countField     `json:"followers"`
	Following       *countField     `json:"following"`
	MembersWithRole *countField     `json:"membersWithRole"`
	Repositories    repoConnection  `json:"repositories"`
}

type repoConnection struct {
	Nodes    []repoNode `json:"nodes"`
	PageInfo pageInfo   `json:"pageInfo"`
}

type repoNode struct {
	Name            string           `json:"name"`
	PrimaryLanguage *primaryLanguage `json:"primaryLanguage"`
	IsFork          bool             `json:"isFork"`
}

type primaryLanguage struct {
	Name string `json:"name"`
}

type pageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}
