package gh

// The source system caps these connections at 100 per page; minik reads
// a single page. TODO: cursor pagination for boards with >100 items.

const orgBoardsQuery = `
query($org: String!) {
    organization(login: $org) {
        projectsV2(first: 100) {
            nodes {
                id
                title
                number
                url
            }
        }
    }
}
`

const boardQuery = `
query($projectId: ID!) {
    node(id: $projectId) {
        ... on ProjectV2 {
            id
            title
            number
            url
            views(first: 1) {
                nodes {
                    fields(first: 20) {
                        nodes {
                            ... on ProjectV2SingleSelectField {
                                id
                                name
                                options {
                                    id
                                    name
                                }
                            }
                        }
                    }
                }
            }
            items(first: 100) {
                nodes {
                    id
                    content {
                        ... on Issue {
                            title
                            url
                            assignees(first: 10) {
                                nodes {
                                    login
                                }
                            }
                            labels(first: 10) {
                                nodes {
                                    name
                                }
                            }
                        }
                        ... on PullRequest {
                            title
                            url
                            assignees(first: 10) {
                                nodes {
                                    login
                                }
                            }
                            labels(first: 10) {
                                nodes {
                                    name
                                }
                            }
                        }
                    }
                    fieldValues(first: 20) {
                        nodes {
                            ... on ProjectV2ItemFieldSingleSelectValue {
                                field {
                                    ... on ProjectV2SingleSelectField {
                                        id
                                    }
                                }
                                optionId
                            }
                        }
                    }
                }
            }
        }
    }
}
`

const moveItemMutation = `
mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $value: ProjectV2FieldValue!) {
    updateProjectV2ItemFieldValue(input: {
        projectId: $projectId
        itemId: $itemId
        fieldId: $fieldId
        value: $value
    }) {
        projectV2Item {
            id
        }
    }
}
`
